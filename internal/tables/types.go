package tables

import (
	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/pricing"
)

// Raw tables loaded from YAML; one section per file. Pointer and map fields
// tell "absent" apart from zero so overrides can be partial.
type RawTables struct {
	Version  string      `yaml:"version"`
	Drop     DropRaw     `yaml:"drop"`
	Title    TitleRaw    `yaml:"title"`
	Alphabet AlphabetRaw `yaml:"alphabet"`
	Boss     BossRaw     `yaml:"boss"`
	Packs    *CatalogRaw `yaml:"packs,omitempty"`
	Notes    string      `yaml:"notes,omitempty"`
}

type DropRaw struct {
	MesoCoefficient *float64 `yaml:"meso_coefficient"`
	RareBaseRate    *float64 `yaml:"rare_base_rate"`
}

// SlotRaw is one title slot. Count defaults to len(Words).
type SlotRaw struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count,omitempty"`
	Words []string `yaml:"words,omitempty"`
}

type TitleRaw struct {
	Slots         []SlotRaw `yaml:"slots"`
	CostSchedule  []int     `yaml:"cost_schedule"`
	MaxIterations *int      `yaml:"max_iterations"`
}

// AlphabetRaw keys its per-tier maps by tier name (high, mid, low).
type AlphabetRaw struct {
	Tiers           map[string]alphabet.TierRule   `yaml:"tiers"`
	OtherLowVariety *int                           `yaml:"other_low_variety"`
	NormalSplit     *alphabet.NormalSplit          `yaml:"normal_split"`
	GroupSize       *int                           `yaml:"group_size"`
	CombineOdds     map[string]float64             `yaml:"combine_odds"`
	DustYield       map[string]alphabet.DustAmount `yaml:"dust_yield"`
	CraftCost       map[string]alphabet.DustAmount `yaml:"craft_cost"`
	MaxRounds       *int                           `yaml:"max_rounds"`
}

type BossRaw struct {
	Bosses map[string]map[string][]boss.Drop `yaml:"bosses"`
	Items  map[string]boss.Item              `yaml:"items"`
}

type CatalogRaw struct {
	UnitName string         `yaml:"unit_name"`
	Currency string         `yaml:"currency"`
	TaxRate  *float64       `yaml:"tax_rate"`
	Packs    []pricing.Pack `yaml:"packs"`
}
