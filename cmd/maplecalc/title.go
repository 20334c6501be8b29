package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xtding233/maplecalc/internal/calc"
)

func newTitleCmd(opts *globalOpts) *cobra.Command {
	var (
		req   calc.TitleRequest
		start []int
		cards []int
	)
	cmd := &cobra.Command{
		Use:   "title",
		Short: "Reroll cost distribution for a three-word title",
		Long: `Solves the reroll chain for a three-slot title. --start marks slots that
already show the wanted word; locked slots cost more per reroll.`,
		Example: `  maplecalc title
  maplecalc title --start 1,0,0 --budget 50000 --first-time scroll-45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(start) != len(req.Start) {
				return fmt.Errorf("--start needs %d values, got %d", len(req.Start), len(start))
			}
			copy(req.Start[:], start)
			req.Cardinalities = cards
			svc, err := opts.service()
			if err != nil {
				return err
			}
			res, err := svc.Title(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printTitle(w, res) })
		},
	}
	fs := cmd.Flags()
	fs.IntSliceVar(&start, "start", []int{0, 0, 0}, "matched flag per slot (0 or 1)")
	fs.IntSliceVar(&cards, "cardinalities", nil, "words per slot (default from tables)")
	fs.IntVar(&req.MaxIterations, "max-iterations", 0, "reroll horizon (default from tables)")
	fs.StringVar(&req.CostMode, "cost-mode", "", "exact or staged (default exact)")
	fs.IntVar(&req.Budget, "budget", 0, "pack budget to evaluate")
	fs.StringSliceVar(&req.FirstTime, "first-time", nil, "pack ids whose first-time bonus is unused")
	return cmd
}

func printTitle(w io.Writer, r calc.TitleResponse) {
	unit := r.UnitName
	if unit == "" {
		unit = "units"
	}
	fmt.Fprintf(w, "Start %v, %s cost\n", r.StartSlots, r.CostMode)
	fmt.Fprintf(w, "Expected resets: %.2f  (p50 %.0f, p90 %.0f, p99 %.0f)\n",
		r.ExpectedResets, r.Resets.P50, r.Resets.P90, r.Resets.P99)
	fmt.Fprintf(w, "Expected cost:   %.2f %s  (p50 %.0f, p90 %.0f, p99 %.0f)\n",
		r.ExpectedCost, unit, r.Cost.P50, r.Cost.P90, r.Cost.P99)
	if r.Truncated {
		fmt.Fprintf(w, "Horizon reached with %s of mass resolved\n", percent(r.Cumulative))
	}
	for _, p := range r.Plans {
		fmt.Fprintf(w, "%s: %s %s for %s %s\n", p.Percentile, humanize.Comma(int64(p.Units)), unit,
			humanize.Comma(int64(p.Plan.Total)), p.Plan.Currency)
		for _, pu := range p.Plan.Purchases {
			fmt.Fprintf(w, "    %dx %s\n", pu.Qty, pu.Name)
		}
	}
	if b := r.Budget; b != nil {
		names := make([]string, 0, len(b.Plan.Purchases))
		for _, pu := range b.Plan.Purchases {
			names = append(names, fmt.Sprintf("%dx %s", pu.Qty, pu.Name))
		}
		fmt.Fprintf(w, "Budget buys %s %s (%s), completion chance %s\n",
			humanize.Comma(int64(b.Units)), unit, strings.Join(names, ", "), percent(b.Probability))
	}
}
