package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/analysis"
)

func newBudgetCmd() *cobra.Command {
	var (
		sortBy    string
		tablePath string
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Spend breakdown per case and model pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch analysis.BudgetSort(sortBy) {
			case analysis.SortByCost, analysis.SortByCount, analysis.SortByName:
			default:
				return fmt.Errorf("invalid --sort %q, use cost, count or name", sortBy)
			}

			rows, err := loadRows()
			if err != nil {
				return err
			}
			table, err := loadPricing(tablePath)
			if err != nil {
				return err
			}

			budgets := analysis.BuildBudgetBreakdown(rows, table, analysis.BudgetSort(sortBy))
			analysis.WriteBudgetReport(os.Stdout, budgets)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(analysis.SortByCost), "order cases by cost, count or name")
	cmd.Flags().StringVar(&tablePath, "pricing", "", "YAML file overriding the model pricing table")
	return cmd
}
