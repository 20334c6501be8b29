// Package boss turns weekly boss clears into expected item counts and meso
// value, using the boss drop tables and the capped linear drop law.
package boss

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidTable = errors.New("invalid boss table")

// Drop is one entry of a difficulty's drop table.
type Drop struct {
	Item string  `json:"item" yaml:"item"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// BoxEntry is one outcome of opening a box item.
type BoxEntry struct {
	Item   string  `json:"item" yaml:"item"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Item carries the market data of a droppable item. Items with a non-empty
// Box are valued through their contents.
type Item struct {
	Price    float64    `json:"price" yaml:"price"`
	Sellable bool       `json:"sellable" yaml:"sellable"`
	Box      []BoxEntry `json:"box,omitempty" yaml:"box,omitempty"`
}

// Table is the immutable boss reference data: boss -> difficulty -> drops.
type Table struct {
	Bosses map[string]map[string][]Drop `json:"bosses" yaml:"bosses"`
	Items  map[string]Item              `json:"items" yaml:"items"`
}

// Drops returns the drop table for one clear.
func (t Table) Drops(boss, difficulty string) ([]Drop, bool) {
	diffs, ok := t.Bosses[boss]
	if !ok {
		return nil, false
	}
	drops, ok := diffs[difficulty]
	return drops, ok
}

// Validate reports every broken reference and out-of-range number, and
// rejects box tables that contain themselves.
func (t Table) Validate() error {
	var errs []string
	for _, b := range sortedKeys(t.Bosses) {
		for _, d := range sortedKeys(t.Bosses[b]) {
			for i, dr := range t.Bosses[b][d] {
				if _, ok := t.Items[dr.Item]; !ok {
					errs = append(errs, fmt.Sprintf("%s/%s drop[%d]: unknown item %q", b, d, i, dr.Item))
				}
				if dr.Rate < 0 || dr.Rate > 1 {
					errs = append(errs, fmt.Sprintf("%s/%s drop[%d]: rate must be in [0,1]", b, d, i))
				}
			}
		}
	}
	for _, name := range sortedKeys(t.Items) {
		it := t.Items[name]
		if it.Price < 0 {
			errs = append(errs, fmt.Sprintf("item %q: price must be >= 0", name))
		}
		sum := 0.0
		for i, e := range it.Box {
			if _, ok := t.Items[e.Item]; !ok {
				errs = append(errs, fmt.Sprintf("item %q box[%d]: unknown item %q", name, i, e.Item))
			}
			if e.Weight < 0 {
				errs = append(errs, fmt.Sprintf("item %q box[%d]: weight must be >= 0", name, i))
			}
			sum += e.Weight
		}
		if len(it.Box) > 0 && sum <= 0 {
			errs = append(errs, fmt.Sprintf("item %q: box weights sum to zero", name))
		}
		if t.cyclic(name, map[string]bool{}) {
			errs = append(errs, fmt.Sprintf("item %q: box contains itself", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidTable, strings.Join(errs, "\n  - "))
	}
	return nil
}

func (t Table) cyclic(name string, seen map[string]bool) bool {
	if seen[name] {
		return true
	}
	seen[name] = true
	defer delete(seen, name)
	for _, e := range t.Items[name].Box {
		if t.cyclic(e.Item, seen) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
