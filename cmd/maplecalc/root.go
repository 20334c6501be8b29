package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/calc"
	"github.com/xtding233/maplecalc/internal/config"
	"github.com/xtding233/maplecalc/internal/observability"
	"github.com/xtding233/maplecalc/internal/tables"
)

type globalOpts struct {
	configPath string
	tablesDir  string
	jsonOut    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}
	root := &cobra.Command{
		Use:           "maplecalc",
		Short:         "Expected-value and probability calculators for MapleStory farming",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	pf.StringVar(&opts.tablesDir, "tables", "", "table override directory (default: config tables.dir)")
	pf.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log calculator runs to stderr")

	root.AddCommand(
		newHuntCmd(opts),
		newBreakevenCmd(opts),
		newTitleCmd(opts),
		newAlphabetCmd(opts),
		newBossCmd(opts),
		newTablesCmd(opts),
	)
	return root
}

// service builds an in-process calculator service from the global flags.
func (o *globalOpts) service() (*calc.Service, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	dir := cfg.Tables.Dir
	if o.tablesDir != "" {
		dir = o.tablesDir
	}
	store, err := tables.NewStore(tables.NewLoader(dir))
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if o.verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
		if log, err = observability.NewLogger(cfg.Logging); err != nil {
			return nil, err
		}
	}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return calc.NewService(store, cfg.Simulation, log, metrics), nil
}

// emit prints v as indented JSON when --json is set, otherwise calls text.
func (o *globalOpts) emit(w io.Writer, v any, text func(io.Writer)) error {
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
