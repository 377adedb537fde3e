package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/analysis"
)

const cutLayout = "2006-01-02"

func newEvolutionCmd() *cobra.Command {
	var (
		batches int
		cuts    string
	)

	cmd := &cobra.Command{
		Use:     "evolution",
		Aliases: []string{"stats"},
		Short:   "Score evolution across temporal batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows()
			if err != nil {
				return err
			}

			var boundaries []time.Time
			if cuts != "" {
				boundaries, err = parseCuts(cuts)
				if err != nil {
					return err
				}
			} else {
				boundaries = analysis.BatchBoundaries(rows, batches)
			}

			evolution := analysis.BuildEvolution(rows, boundaries)
			analysis.WriteEvolutionReport(os.Stdout, boundaries, evolution)
			return nil
		},
	}
	cmd.Flags().IntVarP(&batches, "batches", "b", 3, "number of temporal batches")
	cmd.Flags().StringVar(&cuts, "cuts", "", "manual cut dates, comma-separated (2026-01-01,2026-02-01)")
	return cmd
}

func parseCuts(cuts string) ([]time.Time, error) {
	var boundaries []time.Time
	for _, part := range strings.Split(cuts, ",") {
		t, err := time.Parse(cutLayout, strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid cut date %q, expected YYYY-MM-DD", part)
		}
		boundaries = append(boundaries, t)
	}
	return boundaries, nil
}
