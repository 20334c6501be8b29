package boss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testTable() Table {
	return Table{
		Bosses: map[string]map[string][]Drop{
			"lotus": {
				"hard": {
					{Item: "black-heart", Rate: 0.01},
					{Item: "gear-box", Rate: 0.5},
				},
				"normal": {
					{Item: "black-heart", Rate: 0.002},
				},
			},
		},
		Items: map[string]Item{
			"black-heart": {Price: 1_000_000, Sellable: true},
			"gear-box": {Box: []BoxEntry{
				{Item: "helm", Weight: 1},
				{Item: "glove", Weight: 3},
			}},
			"helm":  {Price: 400},
			"glove": {Price: 800},
		},
	}
}

func solo(boss, diff string) Request {
	return Request{Characters: []Character{{Name: "main", Clears: []Clear{{Boss: boss, Difficulty: diff}}}}}
}

func TestTableValidate(t *testing.T) {
	require.NoError(t, testTable().Validate())

	bad := testTable()
	bad.Bosses["lotus"]["hard"] = append(bad.Bosses["lotus"]["hard"], Drop{Item: "nope", Rate: 2})
	bad.Items["loop"] = Item{Box: []BoxEntry{{Item: "loop", Weight: 1}}}
	err := bad.Validate()
	require.ErrorIs(t, err, ErrInvalidTable)
	assert.Contains(t, err.Error(), `unknown item "nope"`)
	assert.Contains(t, err.Error(), "rate must be in [0,1]")
	assert.Contains(t, err.Error(), "box contains itself")
}

func TestAggregateRatePriority(t *testing.T) {
	tbl := testTable()

	req := solo("lotus", "hard")
	req.DropRateBonusPercent = 100
	res, err := Aggregate(tbl, req)
	require.NoError(t, err)
	require.Len(t, res.Expectations, 2)
	assert.InDelta(t, 0.02, res.Expectations[0].Probability, 1e-12)
	assert.Equal(t, RateSourceTable, res.Expectations[0].RateSource)
	// capped linear law saturates
	assert.Equal(t, 1.0, res.Expectations[1].Probability)

	req.ItemRates = map[string]float64{"black-heart": 0.05}
	res, err = Aggregate(tbl, req)
	require.NoError(t, err)
	assert.Equal(t, 0.05, res.Expectations[0].Probability)
	assert.Equal(t, RateSourceItem, res.Expectations[0].RateSource)

	req.RateOverrides = []RateOverride{{Boss: "lotus", Difficulty: "hard", Item: "black-heart", Rate: 0.1}}
	res, err = Aggregate(tbl, req)
	require.NoError(t, err)
	assert.Equal(t, 0.1, res.Expectations[0].Probability)
	assert.Equal(t, RateSourceOverride, res.Expectations[0].RateSource)
}

func TestAggregatePartyAndFee(t *testing.T) {
	req := Request{
		FeePercent: 5,
		Characters: []Character{{Name: "main", Clears: []Clear{{Boss: "lotus", Difficulty: "normal", PartySize: 2}}}},
	}
	res, err := Aggregate(testTable(), req)
	require.NoError(t, err)
	require.Len(t, res.Expectations, 1)

	e := res.Expectations[0]
	assert.Equal(t, 2, e.PartySize)
	assert.InDelta(t, 950_000, e.UnitPrice, 1e-6)
	assert.InDelta(t, 0.001, e.ExpectedCount, 1e-12)
	assert.InDelta(t, 0.002*950_000/2, e.ExpectedValue, 1e-6)
	assert.InDelta(t, e.ExpectedValue, res.Total, 1e-9)
}

func TestAggregateBoxRenormalized(t *testing.T) {
	res, err := Aggregate(testTable(), solo("lotus", "hard"))
	require.NoError(t, err)
	box := res.Expectations[1]
	require.Equal(t, "gear-box", box.Item)
	// weights 1:3 over 400/800
	assert.InDelta(t, 700, box.UnitPrice, 1e-9)
	assert.InDelta(t, 350, box.ExpectedValue, 1e-9)
	assert.Equal(t, []string{"gear-box"}, res.Normalized)
}

func TestAggregatePriceOverrideReachesBoxContents(t *testing.T) {
	req := solo("lotus", "hard")
	req.Prices = map[string]float64{"helm": 1200}
	res, err := Aggregate(testTable(), req)
	require.NoError(t, err)
	assert.InDelta(t, (1200+3*800)/4.0, res.Expectations[1].UnitPrice, 1e-9)
}

func TestAggregateUnknownSource(t *testing.T) {
	_, err := Aggregate(testTable(), solo("lotus", "extreme"))
	require.ErrorIs(t, err, ErrUnknownSource)
}

func TestAggregateTotalsAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(t, "characters")
		req := Request{
			DropRateBonusPercent: rapid.Float64Range(0, 300).Draw(t, "bonus"),
			FeePercent:           rapid.Float64Range(0, 10).Draw(t, "fee"),
		}
		for i := 0; i < n; i++ {
			ch := Character{Name: rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "name")}
			clears := rapid.IntRange(0, 3).Draw(t, "clears")
			for j := 0; j < clears; j++ {
				ch.Clears = append(ch.Clears, Clear{
					Boss:       "lotus",
					Difficulty: rapid.SampledFrom([]string{"hard", "normal"}).Draw(t, "diff"),
					PartySize:  rapid.IntRange(0, 6).Draw(t, "party"),
				})
			}
			req.Characters = append(req.Characters, ch)
		}
		res, err := Aggregate(testTable(), req)
		if err != nil {
			t.Fatal(err)
		}
		byChar, byItem, byRow := 0.0, 0.0, 0.0
		for _, c := range res.Characters {
			byChar += c.ExpectedValue
		}
		for _, it := range res.Items {
			byItem += it.ExpectedValue
		}
		for _, e := range res.Expectations {
			if e.Probability < 0 || e.Probability > 1 {
				t.Fatalf("probability out of range: %v", e.Probability)
			}
			byRow += e.ExpectedValue
		}
		tol := 1e-6 * (1 + res.Total)
		if d := byChar - res.Total; d > tol || d < -tol {
			t.Fatalf("character totals %v != total %v", byChar, res.Total)
		}
		if d := byItem - res.Total; d > tol || d < -tol {
			t.Fatalf("item totals %v != total %v", byItem, res.Total)
		}
		if d := byRow - res.Total; d > tol || d < -tol {
			t.Fatalf("row totals %v != total %v", byRow, res.Total)
		}
	})
}

func TestSortExpectations(t *testing.T) {
	xs := []Expectation{{Item: "b", ExpectedValue: 1}, {Item: "a", ExpectedValue: 1}, {Item: "c", ExpectedValue: 5}}
	SortExpectations(xs)
	assert.Equal(t, []string{"c", "a", "b"}, []string{xs[0].Item, xs[1].Item, xs[2].Item})
}
