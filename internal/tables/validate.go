package tables

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/title"
)

var ErrInvalidTables = errors.New("tables validation failed")

var tierKeys = map[string]alphabet.Tier{"high": alphabet.High, "mid": alphabet.Mid, "low": alphabet.Low}

// ValidateRaw checks semantic constraints of merged RawTables and reports
// every violation in one error.
func ValidateRaw(raw RawTables) error {
	var errs []string

	// drop
	if raw.Drop.MesoCoefficient != nil && *raw.Drop.MesoCoefficient <= 0 {
		errs = append(errs, "drop.meso_coefficient must be > 0")
	}
	if raw.Drop.RareBaseRate != nil {
		if r := *raw.Drop.RareBaseRate; r <= 0 || r >= 1 {
			errs = append(errs, "drop.rare_base_rate must be in (0,1)")
		}
	}

	// title
	if len(raw.Title.Slots) != title.NumSlots {
		errs = append(errs, fmt.Sprintf("title.slots must list exactly %d slots, got %d", title.NumSlots, len(raw.Title.Slots)))
	}
	for i, s := range raw.Title.Slots {
		switch {
		case s.Count == 0 && len(s.Words) == 0:
			errs = append(errs, fmt.Sprintf("title.slots[%d] (%s): count or words is required", i, s.Name))
		case s.Count < 0:
			errs = append(errs, fmt.Sprintf("title.slots[%d] (%s): count must be >= 1", i, s.Name))
		case s.Count > 0 && len(s.Words) > 0 && s.Count != len(s.Words):
			errs = append(errs, fmt.Sprintf("title.slots[%d] (%s): count %d does not match %d words", i, s.Name, s.Count, len(s.Words)))
		}
	}
	if n := len(raw.Title.CostSchedule); n > 0 {
		if n != title.NumSlots {
			errs = append(errs, fmt.Sprintf("title.cost_schedule must have %d entries", title.NumSlots))
		}
		for i, c := range raw.Title.CostSchedule {
			if c <= 0 {
				errs = append(errs, fmt.Sprintf("title.cost_schedule[%d] must be >= 1", i))
			}
		}
	}
	if raw.Title.MaxIterations != nil && *raw.Title.MaxIterations < 1 {
		errs = append(errs, "title.max_iterations must be >= 1")
	}

	// alphabet: keys first, then the converted rules
	keysOK := true
	for section, keys := range map[string][]string{
		"tiers":        sortedKeys(raw.Alphabet.Tiers),
		"combine_odds": sortedKeys(raw.Alphabet.CombineOdds),
		"dust_yield":   sortedKeys(raw.Alphabet.DustYield),
		"craft_cost":   sortedKeys(raw.Alphabet.CraftCost),
	} {
		for _, k := range keys {
			if _, ok := tierKeys[k]; !ok {
				errs = append(errs, fmt.Sprintf("alphabet.%s.%s: tier must be one of high, mid, low", section, k))
				keysOK = false
			}
		}
	}
	if keysOK {
		if err := toRules(raw.Alphabet).Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	// boss
	if err := toBossTable(raw.Boss).Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	// packs (optional)
	if raw.Packs != nil {
		if raw.Packs.TaxRate != nil && (*raw.Packs.TaxRate < 0 || *raw.Packs.TaxRate >= 1) {
			errs = append(errs, "packs.tax_rate must be in [0,1)")
		}
		seen := map[string]bool{}
		for i, p := range raw.Packs.Packs {
			if p.ID == "" {
				errs = append(errs, fmt.Sprintf("packs.packs[%d]: id is required", i))
			} else if seen[p.ID] {
				errs = append(errs, fmt.Sprintf("packs.packs[%d]: duplicate id %q", i, p.ID))
			}
			seen[p.ID] = true
			if p.Price <= 0 {
				errs = append(errs, fmt.Sprintf("packs.packs[%d]: price must be > 0", i))
			}
			if p.Units < 0 || p.BonusUnits < 0 || p.Units+p.BonusUnits == 0 {
				errs = append(errs, fmt.Sprintf("packs.packs[%d]: units must be >= 0 and grant at least one unit", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTables, strings.Join(errs, "; "))
	}
	return nil
}

// toBossTable is used by both validation and build.
func toBossTable(raw BossRaw) boss.Table {
	return boss.Table{Bosses: raw.Bosses, Items: raw.Items}
}
