package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/maplecalc/internal/boss"
)

func newBossCmd(opts *globalOpts) *cobra.Command {
	var (
		file   string
		clears []string
		req    boss.Request
		top    int
	)
	cmd := &cobra.Command{
		Use:   "boss",
		Short: "Expected weekly boss income across characters",
		Long: `Aggregates expected drops and values for a set of boss clears. Either read
a full JSON request with --file (use - for stdin) or list clears for a single
character with --clear boss:difficulty[:party].`,
		Example: `  maplecalc boss --clear lotus:hard:2 --clear damien:hard --fee 5
  maplecalc boss --file roster.json --top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				r, err := readRequest(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				// explicit flags win over the file
				if cmd.Flags().Changed("bonus") {
					r.DropRateBonusPercent = req.DropRateBonusPercent
				}
				if cmd.Flags().Changed("fee") {
					r.FeePercent = req.FeePercent
				}
				req = r
			} else {
				cs, err := parseClears(clears)
				if err != nil {
					return err
				}
				req.Characters = []boss.Character{{Name: "main", Clears: cs}}
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			res, err := svc.Boss(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printBoss(w, res, top) })
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&file, "file", "f", "", "JSON request file, - for stdin")
	fs.StringArrayVar(&clears, "clear", nil, "boss:difficulty[:party] (repeatable)")
	fs.Float64Var(&req.DropRateBonusPercent, "bonus", 0, "drop rate bonus percent")
	fs.Float64Var(&req.FeePercent, "fee", 0, "market fee percent on sellable items")
	fs.IntVar(&top, "top", 15, "expectation rows to print (0 = all)")
	return cmd
}

// readRequest decodes a JSON request from path or stdin.
func readRequest(stdin io.Reader, path string) (boss.Request, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return boss.Request{}, err
		}
		defer f.Close()
		r = f
	}
	var req boss.Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return boss.Request{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}

func parseClears(specs []string) ([]boss.Clear, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no clears: pass --clear or --file")
	}
	out := make([]boss.Clear, 0, len(specs))
	for _, s := range specs {
		parts := strings.Split(s, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("clear %q: want boss:difficulty[:party]", s)
		}
		c := boss.Clear{Boss: parts[0], Difficulty: parts[1]}
		if len(parts) == 3 {
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("clear %q: party: %w", s, err)
			}
			c.PartySize = n
		}
		out = append(out, c)
	}
	return out, nil
}

func printBoss(w io.Writer, r boss.Result, top int) {
	rows := append([]boss.Expectation(nil), r.Expectations...)
	boss.SortExpectations(rows)
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}
	for _, e := range rows {
		fmt.Fprintf(w, "%-10s %-12s %-8s %-22s %9s  %14s\n",
			e.Character, e.Boss, e.Difficulty, e.Item, percent(e.Probability), meso(e.ExpectedValue))
	}
	fmt.Fprintln(w)
	for _, c := range r.Characters {
		fmt.Fprintf(w, "%-10s %d clears  %s\n", c.Character, c.Clears, meso(c.ExpectedValue))
	}
	fmt.Fprintf(w, "Total: %s\n", meso(r.Total))
	if len(r.Normalized) > 0 {
		fmt.Fprintf(w, "Renormalized box weights: %s\n", strings.Join(r.Normalized, ", "))
	}
}
