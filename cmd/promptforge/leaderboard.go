package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/analysis"
	"github.com/promptforge/promptforge/pricing"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		outputMD  string
		exportCSV string
		tablePath string
	)

	cmd := &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Ranking table with stability, anomalies and savings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows()
			if err != nil {
				return err
			}
			table, err := loadPricing(tablePath)
			if err != nil {
				return err
			}

			stats := analysis.BuildLeaderboard(rows, table)
			cases := analysis.BuildCaseStats(stats)
			anomalies := analysis.DetectAnomalies(rows)

			analysis.WriteLeaderboardReport(os.Stdout, stats, cases, anomalies)

			if exportCSV != "" {
				if err := analysis.WriteLeaderboardCSV(exportCSV, stats); err != nil {
					return err
				}
				fmt.Printf("\nCSV guardado en: %s\n", exportCSV)
			}
			if outputMD != "" {
				if err := analysis.WriteLeaderboardMarkdown(outputMD, stats, cases, anomalies); err != nil {
					return err
				}
				fmt.Printf("\nReporte guardado en: %s\n", outputMD)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputMD, "output", "o", "", "write the report as Markdown to this path")
	cmd.Flags().StringVar(&exportCSV, "export", "", "write the leaderboard table as CSV to this path")
	cmd.Flags().StringVar(&tablePath, "pricing", "", "YAML file overriding the model pricing table")
	return cmd
}

func loadPricing(path string) (pricing.Table, error) {
	if path == "" {
		return pricing.DefaultTable(), nil
	}
	return pricing.LoadTable(path)
}
