package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/maplecalc/internal/tables"
)

func newTablesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Show the merged reference tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			t := svc.Tables()
			return opts.emit(cmd.OutOrStdout(), t, func(w io.Writer) { printTables(w, t) })
		},
	}
}

func printTables(w io.Writer, t *tables.Tables) {
	fmt.Fprintf(w, "Tables version %s\n", t.Version)
	fmt.Fprintf(w, "Drop: meso coefficient %g, rare base rate %g\n", t.Drop.MesoCoefficient, t.Drop.RareBaseRate)

	slots := make([]string, 0, len(t.Title.Slots))
	for _, s := range t.Title.Slots {
		slots = append(slots, fmt.Sprintf("%s=%d", s.Name, s.Count))
	}
	fmt.Fprintf(w, "Title: slots %s, cost schedule %v, horizon %d\n",
		strings.Join(slots, " "), t.Title.Schedule, t.Title.MaxIterations)

	for _, tier := range t.Alphabet.Tiers {
		fmt.Fprintf(w, "Alphabet: %s need %d each\n", strings.Join(tier.Symbols, ""), tier.Target)
	}

	bosses := make([]string, 0, len(t.Boss.Bosses))
	for name, diffs := range t.Boss.Bosses {
		ds := make([]string, 0, len(diffs))
		for d := range diffs {
			ds = append(ds, d)
		}
		sort.Strings(ds)
		bosses = append(bosses, fmt.Sprintf("%s(%s)", name, strings.Join(ds, ",")))
	}
	sort.Strings(bosses)
	fmt.Fprintf(w, "Bosses: %s\n", strings.Join(bosses, " "))

	for _, p := range t.Packs.Packs {
		fmt.Fprintf(w, "Pack %s: %d+%d %s for %d %s\n", p.ID, p.Units, p.BonusUnits, t.Packs.UnitName, p.Price, t.Packs.Currency)
	}
}
