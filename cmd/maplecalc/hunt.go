package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xtding233/maplecalc/internal/drop"
)

type huntFlags struct {
	in    drop.HuntInput
	drops []string
}

func bindCharacter(fs *pflag.FlagSet, level, kph, meso, dropBonus, potion, rare *float64) {
	fs.Float64Var(level, "level", 0, "monster level")
	fs.Float64Var(kph, "kph", 0, "kills per hour")
	fs.Float64Var(meso, "meso", 0, "meso bonus percent")
	fs.Float64Var(dropBonus, "drop", 0, "item drop bonus percent")
	fs.Float64Var(potion, "potion", 0, "meso potion multiplier (0 = none)")
	fs.Float64Var(rare, "rare-price", 0, "price of the rare drop")
}

func newHuntCmd(opts *globalOpts) *cobra.Command {
	f := &huntFlags{}
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Expected meso and drops per hour of a hunting session",
		Example: `  maplecalc hunt --level 200 --kph 18000 --meso 120 --drop 160 --cost 2000000
  maplecalc hunt --level 250 --kph 20000 --item "sol erda:0.0001:5000000"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			drops, err := parseDrops(f.drops)
			if err != nil {
				return err
			}
			f.in.Drops = drops
			svc, err := opts.service()
			if err != nil {
				return err
			}
			res, err := svc.Hunt(cmd.Context(), f.in)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printHunt(w, res) })
		},
	}
	fs := cmd.Flags()
	bindCharacter(fs, &f.in.MonsterLevel, &f.in.KillsPerHour, &f.in.MesoBonusPercent,
		&f.in.ItemDropBonusPercent, &f.in.PotionMultiplier, &f.in.RareItemPrice)
	fs.Float64Var(&f.in.CostPerHour, "cost", 0, "hourly upkeep cost")
	fs.Float64Var(&f.in.SessionMinutes, "minutes", 60, "session length in minutes")
	fs.StringArrayVar(&f.drops, "item", nil, "extra drop as name:base_rate:price (repeatable)")
	return cmd
}

// parseDrops reads name:base_rate:price triples. Names may contain colons.
func parseDrops(specs []string) ([]drop.ItemDrop, error) {
	out := make([]drop.ItemDrop, 0, len(specs))
	for _, s := range specs {
		i := strings.LastIndex(s, ":")
		j := -1
		if i > 0 {
			j = strings.LastIndex(s[:i], ":")
		}
		if j <= 0 {
			return nil, fmt.Errorf("item %q: want name:base_rate:price", s)
		}
		rate, err := strconv.ParseFloat(s[j+1:i], 64)
		if err != nil {
			return nil, fmt.Errorf("item %q: rate: %w", s, err)
		}
		price, err := strconv.ParseFloat(s[i+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("item %q: price: %w", s, err)
		}
		out = append(out, drop.ItemDrop{Name: s[:j], BaseRate: rate, Price: price})
	}
	return out, nil
}

func printHunt(w io.Writer, r drop.HuntResult) {
	fmt.Fprintf(w, "Meso per kill:      %s\n", humanize.Commaf(math.Round(r.MesoPerKill*100)/100))
	fmt.Fprintf(w, "Meso per hour:      %s\n", meso(r.MesoPerHour))
	fmt.Fprintf(w, "Rare drop rate:     %s (%.3f per hour)\n", percent(r.RareDropRate), r.RareDropsPerHour)
	fmt.Fprintf(w, "Rare value / hour:  %s\n", meso(r.RareValuePerHour))
	for _, it := range r.Items {
		fmt.Fprintf(w, "  %-16s %s  %.2f/h  %s/h\n", it.Name, percent(it.Rate), it.PerHour, meso(it.ValuePerHour))
	}
	fmt.Fprintf(w, "Gross per hour:     %s\n", meso(r.GrossPerHour))
	fmt.Fprintf(w, "Net per hour:       %s\n", meso(r.NetPerHour))
	fmt.Fprintf(w, "Session net:        %s\n", meso(r.SessionNet))
}

func newBreakevenCmd(opts *globalOpts) *cobra.Command {
	var in drop.BreakevenInput
	cmd := &cobra.Command{
		Use:     "breakeven",
		Short:   "Minutes a buff must run before its extra drops pay for it",
		Example: `  maplecalc breakeven --level 200 --kph 18000 --meso 100 --extra-meso 20 --buff-cost 50000000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			res, err := svc.Breakeven(cmd.Context(), in)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printBreakeven(w, res) })
		},
	}
	fs := cmd.Flags()
	bindCharacter(fs, &in.MonsterLevel, &in.KillsPerHour, &in.MesoBonusPercent,
		&in.ItemDropBonusPercent, &in.PotionMultiplier, &in.RareItemPrice)
	fs.Float64Var(&in.ExtraMesoBonusPercent, "extra-meso", 0, "meso bonus percent the buff adds")
	fs.Float64Var(&in.ExtraDropBonusPercent, "extra-drop", 0, "drop bonus percent the buff adds")
	fs.Float64Var(&in.BuffCost, "buff-cost", 0, "price of the buff")
	return cmd
}

func printBreakeven(w io.Writer, r drop.BreakevenResult) {
	fmt.Fprintf(w, "Extra value per kill: %s (meso share %s)\n",
		humanize.Commaf(math.Round(r.ExtraValuePerKill*100)/100), percent(r.MesoShare))
	if !r.Reachable {
		if r.Kills > 0 {
			fmt.Fprintf(w, "Breakeven after %s kills; pass --kph for minutes\n", humanize.Comma(int64(math.Ceil(r.Kills))))
			return
		}
		fmt.Fprintln(w, "The buff never pays for itself.")
		return
	}
	fmt.Fprintf(w, "Breakeven after %s kills, %.1f minutes\n", humanize.Comma(int64(math.Ceil(r.Kills))), r.Minutes)
}

func meso(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
