package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/analysis"
)

func newROICmd() *cobra.Command {
	var (
		volume    int
		tablePath string
	)

	cmd := &cobra.Command{
		Use:   "roi",
		Short: "Optimization cost and production return per model pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows()
			if err != nil {
				return err
			}
			table, err := loadPricing(tablePath)
			if err != nil {
				return err
			}

			results := analysis.BuildROI(rows, table, volume)
			analysis.WriteROIReport(os.Stdout, table, results, volume)
			return nil
		},
	}
	cmd.Flags().IntVarP(&volume, "volume", "v", 1000, "production call volume for projections")
	cmd.Flags().StringVar(&tablePath, "pricing", "", "YAML file overriding the model pricing table")
	return cmd
}
