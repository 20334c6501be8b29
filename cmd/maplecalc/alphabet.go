package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/calc"
)

func bindStart(fs *pflag.FlagSet, s *alphabet.Start) {
	fs.IntVar(&s.Premium, "premium", 0, "premium alphabet coupons (channel A)")
	fs.IntVar(&s.Normal, "normal", 0, "normal alphabet coupons (channel B)")
	fs.StringToIntVar(&s.Alphabets, "have", nil, "alphabets already owned, e.g. J=1,A=3")
	fs.IntVar(&s.OtherLow, "other-low", 0, "owned low-tier letters outside the word")
	fs.IntVar(&s.Dust.Normal, "dust", 0, "normal dust on hand")
	fs.IntVar(&s.Dust.Premium, "premium-dust", 0, "premium dust on hand")
}

func newAlphabetCmd(opts *globalOpts) *cobra.Command {
	var (
		req      calc.AlphabetRequest
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "alphabet",
		Short: "Monte Carlo chance of completing the alphabet event",
		Example: `  maplecalc alphabet --premium 20 --normal 80 --precision high
  maplecalc alphabet --normal 120 --have J=1,Q=1 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			var fn alphabet.ProgressFunc
			if progress {
				errw := cmd.ErrOrStderr()
				fn = func(done, total int) {
					fmt.Fprintf(errw, "\r%s / %s trials", humanize.Comma(int64(done)), humanize.Comma(int64(total)))
					if done == total {
						fmt.Fprintln(errw)
					}
				}
			}
			est, err := svc.Alphabet(cmd.Context(), req, fn)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), est, func(w io.Writer) { printEstimate(w, est) })
		},
	}
	fs := cmd.Flags()
	bindStart(fs, &req.Start)
	fs.StringVar(&req.Precision, "precision", "", "low, medium or high (default from config)")
	fs.IntVar(&req.Iterations, "iterations", 0, "trial count, overrides --precision")
	fs.IntVar(&req.Workers, "workers", 0, "parallel workers (default from config)")
	fs.Uint64Var(&req.Seed, "seed", 0, "random seed (0 picks one)")
	fs.BoolVar(&progress, "progress", false, "report progress on stderr")

	cmd.AddCommand(newSweepCmd(opts), newRequiredCmd(opts))
	return cmd
}

func printEstimate(w io.Writer, e alphabet.Estimate) {
	fmt.Fprintf(w, "Completion chance: %s ± %s (%s of %s trials)\n",
		percent(e.Probability), percent(1.96*e.StdErr),
		humanize.Comma(int64(e.Successes)), humanize.Comma(int64(e.Iterations)))
	fmt.Fprintf(w, "Missing letters:   mean %.2f, p50 %.0f, p90 %.0f\n", e.Shortage.Mean, e.Shortage.P50, e.Shortage.P90)
	fmt.Fprintf(w, "Mean rounds %.2f, mean crafted %.2f, seed %d\n", e.MeanRounds, e.MeanCrafted, e.Seed)
}

func newSweepCmd(opts *globalOpts) *cobra.Command {
	var req calc.SweepRequest
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Completion chance across a range of coupon counts",
		Example: `  maplecalc alphabet sweep --channel normal --from 0 --to 200 --step 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			points, err := svc.AlphabetSweep(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), points, func(w io.Writer) {
				fmt.Fprintf(w, "%8s  %s\n", req.Channel, "chance")
				for _, p := range points {
					fmt.Fprintf(w, "%8d  %s\n", p.Units, percent(p.Probability))
				}
			})
		},
	}
	fs := cmd.Flags()
	bindStart(fs, &req.Start)
	fs.StringVar(&req.Channel, "channel", "normal", "channel to vary: premium or normal")
	fs.IntVar(&req.From, "from", 0, "first coupon count")
	fs.IntVar(&req.To, "to", 100, "last coupon count")
	fs.IntVar(&req.Step, "step", 10, "coupon count step")
	fs.IntVar(&req.Iterations, "iterations", 0, "trials per point")
	fs.Uint64Var(&req.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func newRequiredCmd(opts *globalOpts) *cobra.Command {
	var req calc.RequiredRequest
	cmd := &cobra.Command{
		Use:     "required",
		Short:   "Coupons needed to reach target completion chances",
		Example: `  maplecalc alphabet required --channel premium --target 0.5,0.9 --high 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			results, err := svc.AlphabetRequired(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), results, func(w io.Writer) {
				for _, r := range results {
					if !r.Reached {
						fmt.Fprintf(w, "%s: not reached within %d %s coupons (%s)\n",
							percent(r.Target), req.High, req.Channel, percent(r.Probability))
						continue
					}
					fmt.Fprintf(w, "%s: %d %s coupons (%s)\n", percent(r.Target), r.Units, req.Channel, percent(r.Probability))
				}
			})
		},
	}
	fs := cmd.Flags()
	bindStart(fs, &req.Start)
	fs.StringVar(&req.Channel, "channel", "normal", "channel to search: premium or normal")
	fs.Float64SliceVar(&req.Targets, "target", []float64{0.5, 0.9}, "target probabilities")
	fs.IntVar(&req.Low, "low", 0, "search lower bound")
	fs.IntVar(&req.High, "high", 500, "search upper bound")
	fs.IntVar(&req.Iterations, "iterations", 0, "trials per probe")
	fs.Uint64Var(&req.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
