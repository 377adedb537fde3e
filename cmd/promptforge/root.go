package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/analysis"
)

var (
	flagCSV     string
	flagProject string
	flagCase    string
	flagRoot    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "promptforge",
		Short:         "Prompt optimization experiment tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flagCSV, "csv", "", "explicit path to a metrics CSV")
	root.PersistentFlags().StringVar(&flagProject, "project", "", "filter projects by name (partial match)")
	root.PersistentFlags().StringVar(&flagCase, "case", "", "filter rows by case name (partial match)")
	root.PersistentFlags().StringVar(&flagRoot, "root", ".", "directory scanned for project results")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newLeaderboardCmd())
	root.AddCommand(newROICmd())
	root.AddCommand(newBudgetCmd())
	root.AddCommand(newEvolutionCmd())
	return root
}

// loadRows resolves the metrics source: an explicit --csv wins, otherwise
// every project results file under --root is merged.
func loadRows() ([]analysis.Row, error) {
	if flagCSV != "" {
		rows, err := analysis.LoadFile(flagCSV)
		if err != nil {
			return nil, err
		}
		return analysis.FilterCase(rows, flagCase), nil
	}

	paths, err := analysis.Discover(flagRoot, flagProject)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s found under %s, use --csv to point at one",
			analysis.MetricsFilename, flagRoot)
	}
	if len(paths) > 1 {
		fmt.Printf("CSVs encontrados: %d\n", len(paths))
		for _, p := range paths {
			fmt.Printf("  - %s\n", p)
		}
	}

	rows, err := analysis.LoadAll(paths)
	if err != nil {
		return nil, err
	}
	return analysis.FilterCase(rows, flagCase), nil
}
