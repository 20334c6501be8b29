// Package tables holds the immutable reference data the calculators read:
// drop constants, title slot pools, alphabet event rules, boss drop tables
// and reroll packs. Defaults are embedded; an override directory is merged
// over them and can be hot-reloaded.
package tables

import (
	"sync/atomic"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/drop"
	"github.com/xtding233/maplecalc/internal/pricing"
	"github.com/xtding233/maplecalc/internal/title"
)

type Slot struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Words []string `json:"words,omitempty"`
}

type TitleTable struct {
	Slots         []Slot              `json:"slots"`
	Cards         title.Cardinalities `json:"cardinalities"`
	Schedule      title.CostSchedule  `json:"cost_schedule"`
	MaxIterations int                 `json:"max_iterations"`
}

// Tables is one validated snapshot. Callers must not mutate it.
type Tables struct {
	Version  string          `json:"version"`
	Drop     drop.Model      `json:"drop"`
	Title    TitleTable      `json:"title"`
	Alphabet alphabet.Rules  `json:"alphabet"`
	Boss     boss.Table      `json:"boss"`
	Packs    pricing.Catalog `json:"packs"`
}

func build(raw RawTables) *Tables {
	t := &Tables{
		Version:  raw.Version,
		Drop:     drop.DefaultModel(),
		Alphabet: toRules(raw.Alphabet),
		Boss:     toBossTable(raw.Boss),
		Title: TitleTable{
			Schedule:      title.DefaultCostSchedule,
			MaxIterations: title.DefaultMaxIterations,
		},
	}
	if raw.Drop.MesoCoefficient != nil {
		t.Drop.MesoCoefficient = *raw.Drop.MesoCoefficient
	}
	if raw.Drop.RareBaseRate != nil {
		t.Drop.RareBaseRate = *raw.Drop.RareBaseRate
	}

	for i, s := range raw.Title.Slots {
		n := s.Count
		if n == 0 {
			n = len(s.Words)
		}
		t.Title.Slots = append(t.Title.Slots, Slot{Name: s.Name, Count: n, Words: s.Words})
		if i < title.NumSlots {
			t.Title.Cards[i] = n
		}
	}
	if len(raw.Title.CostSchedule) == title.NumSlots {
		copy(t.Title.Schedule[:], raw.Title.CostSchedule)
	}
	if raw.Title.MaxIterations != nil {
		t.Title.MaxIterations = *raw.Title.MaxIterations
	}

	if raw.Packs != nil {
		t.Packs = pricing.Catalog{
			UnitName: raw.Packs.UnitName,
			Currency: raw.Packs.Currency,
			Packs:    raw.Packs.Packs,
		}
		if raw.Packs.TaxRate != nil {
			t.Packs.TaxRate = *raw.Packs.TaxRate
		}
	}
	return t
}

func toRules(raw AlphabetRaw) alphabet.Rules {
	var r alphabet.Rules
	for name, tier := range tierKeys {
		if rule, ok := raw.Tiers[name]; ok {
			r.Tiers[tier] = rule
		}
		r.CombineOdds[tier] = raw.CombineOdds[name]
		r.DustYield[tier] = raw.DustYield[name]
		r.CraftCost[tier] = raw.CraftCost[name]
	}
	if raw.OtherLowVariety != nil {
		r.OtherLowVariety = *raw.OtherLowVariety
	}
	if raw.NormalSplit != nil {
		r.NormalSplit = *raw.NormalSplit
	}
	if raw.GroupSize != nil {
		r.GroupSize = *raw.GroupSize
	}
	r.MaxRounds = alphabet.DefaultMaxRounds
	if raw.MaxRounds != nil {
		r.MaxRounds = *raw.MaxRounds
	}
	return r
}

// Store serves the current snapshot. Reload swaps it atomically; readers
// holding an older snapshot keep using it.
type Store struct {
	loader  *Loader
	current atomic.Pointer[Tables]
}

// NewStore loads the tables once and fails if they are invalid.
func NewStore(loader *Loader) (*Store, error) {
	t, err := loader.Load()
	if err != nil {
		return nil, err
	}
	s := &Store{loader: loader}
	s.current.Store(t)
	return s, nil
}

func (s *Store) Get() *Tables { return s.current.Load() }

// Reload re-reads the tables. On error the previous snapshot stays in place.
func (s *Store) Reload() error {
	t, err := s.loader.Load()
	if err != nil {
		return err
	}
	s.current.Store(t)
	return nil
}

func (s *Store) Dir() string { return s.loader.Dir }
