// Command wafel is the terminal front end over the editor core: it wires
// a sim.Simulator, a typelayout.Layout, a memview.View, a timeline.Timeline
// and a pipeline.Pipeline together from flags, then hands the result to
// whichever subcommand was invoked. Every subcommand shares that one
// construction path — none of them builds its own Timeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branpk/wafel-sub001/internal/dwarfload"
	"github.com/branpk/wafel-sub001/internal/memview"
	"github.com/branpk/wafel-sub001/internal/simref"
	"github.com/branpk/wafel-sub001/internal/typelayout"
	"github.com/branpk/wafel-sub001/pipeline"
	"github.com/branpk/wafel-sub001/sim"
	"github.com/branpk/wafel-sub001/timeline"
)

// appFlags holds the persistent flags every subcommand reads to build
// its Timeline/Pipeline. Cobra fills it from the root command's
// persistent flags while parsing arguments, before any subcommand's RunE
// runs.
type appFlags struct {
	dwarfPath    string
	catalogPath  string
	backups      int
	cacheBudget  int
}

var flags appFlags

// app is the wired-up core every subcommand operates on, built by
// buildApp at the start of each subcommand's RunE that needs it.
type app struct {
	sim    sim.Simulator
	layout *typelayout.Layout
	memory *memview.View
	tl     *timeline.Timeline
	pl     *pipeline.Pipeline
}

func buildApp() (*app, error) {
	s := simref.New()

	var descs typelayout.Descriptions
	if flags.dwarfPath != "" {
		d, err := dwarfload.LoadFromELF(flags.dwarfPath, dwarfload.Options{})
		if err != nil {
			return nil, fmt.Errorf("loading dwarf from %s: %w", flags.dwarfPath, err)
		}
		descs = d
	} else {
		descs = simref.Descriptions()
	}

	layout, err := typelayout.Build(descs)
	if err != nil {
		return nil, fmt.Errorf("building type layout: %w", err)
	}

	memory := memview.New(s, nil)

	tl, err := timeline.New(s, memory, layout, timeline.Config{
		NumBackupSlots:  flags.backups,
		CacheBudgetByte: flags.cacheBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("building timeline: %w", err)
	}

	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	pl, err := pipeline.New(tl, layout, cat)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	return &app{sim: s, layout: layout, memory: memory, tl: tl, pl: pl}, nil
}

func loadCatalog() (pipeline.Catalog, error) {
	if flags.catalogPath != "" {
		return pipeline.LoadCatalog(flags.catalogPath)
	}
	return pipeline.DecodeCatalog(defaultCatalogTOML)
}

func main() {
	root := &cobra.Command{
		Use:           "wafel",
		Short:         "A tool-assisted-speedrun editor core over a deterministic game simulator.",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flags.dwarfPath, "dwarf", "", "path to an ELF binary to load the type layout from (defaults to the built-in reference simulator's layout)")
	root.PersistentFlags().StringVar(&flags.catalogPath, "catalog", "", "path to a TOML variable catalog (defaults to a small built-in catalog over the reference simulator)")
	root.PersistentFlags().IntVar(&flags.backups, "backups", 30, "number of backup slots the slot manager maintains")
	root.PersistentFlags().IntVar(&flags.cacheBudget, "cache-budget", 1<<20, "data cache byte budget")

	root.AddCommand(
		newPlayCmd(),
		newPathCmd(),
		newVarCmd(),
		newMovieCmd(),
		newScriptCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
