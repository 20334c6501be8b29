package tables

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/pricing"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// FileNames are the table files read from the defaults and override
// directories, in merge order.
var FileNames = []string{"drop.yaml", "title.yaml", "alphabet.yaml", "boss.yaml", "packs.yaml"}

// Loader reads the embedded default tables and merges an optional override
// directory over them: default <- override.
type Loader struct {
	Dir string // override directory; "" means defaults only
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// LoadMerged returns the merged raw tables without validation.
func (l *Loader) LoadMerged() (RawTables, error) {
	var merged RawTables
	for _, name := range FileNames {
		b, err := fs.ReadFile(defaultsFS, "defaults/"+name)
		if err != nil {
			return RawTables{}, fmt.Errorf("read default %s: %w", name, err)
		}
		raw, err := decode(b)
		if err != nil {
			return RawTables{}, fmt.Errorf("parse default %s: %w", name, err)
		}
		merged = mergeRaw(merged, raw)
	}
	if l.Dir == "" {
		return merged, nil
	}
	for _, name := range FileNames {
		raw, err := readYAML(filepath.Join(l.Dir, name)) // override files are optional
		if err != nil {
			return RawTables{}, fmt.Errorf("read override %s: %w", name, err)
		}
		merged = mergeRaw(merged, raw)
	}
	return merged, nil
}

// Load merges, validates and converts the tables into an immutable snapshot.
func (l *Loader) Load() (*Tables, error) {
	raw, err := l.LoadMerged()
	if err != nil {
		return nil, err
	}
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}
	return build(raw), nil
}

// readYAML loads a YAML file. Missing files return zero tables, no error.
func readYAML(path string) (RawTables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawTables{}, nil
		}
		return RawTables{}, err
	}
	return decode(b)
}

func decode(b []byte) (RawTables, error) {
	var raw RawTables
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return RawTables{}, err
	}
	return raw, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where set.
// Slices are replaced whole; maps are merged key by key.
func mergeRaw(a, b RawTables) RawTables {
	out := a

	// top-level scalars
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// drop
	if b.Drop.MesoCoefficient != nil {
		out.Drop.MesoCoefficient = b.Drop.MesoCoefficient
	}
	if b.Drop.RareBaseRate != nil {
		out.Drop.RareBaseRate = b.Drop.RareBaseRate
	}

	// title
	if len(b.Title.Slots) > 0 {
		out.Title.Slots = append([]SlotRaw(nil), b.Title.Slots...)
	}
	if len(b.Title.CostSchedule) > 0 {
		out.Title.CostSchedule = append([]int(nil), b.Title.CostSchedule...)
	}
	if b.Title.MaxIterations != nil {
		out.Title.MaxIterations = b.Title.MaxIterations
	}

	// alphabet
	out.Alphabet.Tiers = mergeMap(a.Alphabet.Tiers, b.Alphabet.Tiers)
	out.Alphabet.CombineOdds = mergeMap(a.Alphabet.CombineOdds, b.Alphabet.CombineOdds)
	out.Alphabet.DustYield = mergeMap(a.Alphabet.DustYield, b.Alphabet.DustYield)
	out.Alphabet.CraftCost = mergeMap(a.Alphabet.CraftCost, b.Alphabet.CraftCost)
	if b.Alphabet.OtherLowVariety != nil {
		out.Alphabet.OtherLowVariety = b.Alphabet.OtherLowVariety
	}
	if b.Alphabet.NormalSplit != nil {
		c := *b.Alphabet.NormalSplit
		out.Alphabet.NormalSplit = &c
	}
	if b.Alphabet.GroupSize != nil {
		out.Alphabet.GroupSize = b.Alphabet.GroupSize
	}
	if b.Alphabet.MaxRounds != nil {
		out.Alphabet.MaxRounds = b.Alphabet.MaxRounds
	}

	// boss: difficulties merge per boss, items per key
	if len(b.Boss.Bosses) > 0 {
		bosses := make(map[string]map[string][]boss.Drop, len(a.Boss.Bosses)+len(b.Boss.Bosses))
		for name, diffs := range a.Boss.Bosses {
			bosses[name] = maps.Clone(diffs)
		}
		for name, diffs := range b.Boss.Bosses {
			bosses[name] = mergeMap(bosses[name], diffs)
		}
		out.Boss.Bosses = bosses
	}
	out.Boss.Items = mergeMap(a.Boss.Items, b.Boss.Items)

	// packs: scalars override, packs merge by id
	switch {
	case out.Packs == nil && b.Packs != nil:
		c := *b.Packs
		c.Packs = append([]pricing.Pack(nil), b.Packs.Packs...)
		out.Packs = &c
	case out.Packs != nil && b.Packs != nil:
		c := *out.Packs
		if b.Packs.UnitName != "" {
			c.UnitName = b.Packs.UnitName
		}
		if b.Packs.Currency != "" {
			c.Currency = b.Packs.Currency
		}
		if b.Packs.TaxRate != nil {
			c.TaxRate = b.Packs.TaxRate
		}
		c.Packs = mergePacks(c.Packs, b.Packs.Packs)
		out.Packs = &c
	}

	return out
}

func mergeMap[V any](a, b map[string]V) map[string]V {
	if len(b) == 0 {
		return a
	}
	out := make(map[string]V, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

func mergePacks(a, b []pricing.Pack) []pricing.Pack {
	out := append([]pricing.Pack(nil), a...)
	for _, p := range b {
		replaced := false
		for i := range out {
			if out[i].ID == p.ID {
				out[i], replaced = p, true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

// sortedKeys is used wherever map order would leak into output or errors.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
