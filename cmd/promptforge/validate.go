package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/dataset"
	"github.com/promptforge/promptforge/pricing"
)

func newValidateCmd() *cobra.Command {
	var (
		datasetsDir string
		promptsDir  string
	)

	cmd := &cobra.Command{
		Use:   "validate <experiment.yaml>",
		Short: "Check an experiment config before running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := config.Load(args[0])
			if err != nil {
				return err
			}

			if errs := config.Validate(exp, datasetsDir); len(errs) > 0 {
				return fmt.Errorf("%s", strings.TrimRight(config.FormatErrors(errs), "\n"))
			}

			fmt.Printf("Config OK: %s\n", exp.Case.Name)
			fmt.Printf("  Adapter: %s\n", exp.Adapter.Type)
			fmt.Printf("  Budget (metric calls): %d\n", exp.MetricCalls())

			if datasetsDir != "" {
				info, err := dataset.Describe(filepath.Join(datasetsDir, exp.Data.CSVFilename))
				if err != nil {
					return err
				}
				fmt.Printf("  Dataset: %d rows (train=%d val=%d test=%d)\n",
					info.TotalRows, info.SplitCounts["train"], info.SplitCounts["val"], info.SplitCounts["test"])
			}

			env, err := config.LoadLLMEnv()
			if err != nil {
				return err
			}
			if missing := env.Missing(); len(missing) > 0 {
				fmt.Printf("  Warning: missing environment: %s\n", strings.Join(missing, ", "))
			} else {
				fmt.Printf("  LLM: %s (task) / %s (reflection)\n", env.TaskModel, env.ReflectionModel)
			}

			if promptsDir != "" && exp.Prompt.Filename != "" {
				if err := measurePrompt(promptsDir, exp, env.TaskModel); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetsDir, "datasets", "", "directory holding dataset CSVs (enables file checks)")
	cmd.Flags().StringVar(&promptsDir, "prompts", "", "directory holding prompt files (enables token measuring)")
	return cmd
}

// measurePrompt tokenizes the actual prompt file and reports how far the
// static per-case estimate is off.
func measurePrompt(promptsDir string, exp *config.Experiment, taskModel string) error {
	data, err := os.ReadFile(filepath.Join(promptsDir, exp.Prompt.Filename))
	if err != nil {
		return fmt.Errorf("reading prompt file: %w", err)
	}

	estimator, err := pricing.NewTokenEstimator(taskModel)
	if err != nil {
		fmt.Printf("  Prompt: tokenizer unavailable (%v), keeping static estimates\n", err)
		return nil
	}

	static := pricing.EstimateForCase(exp.Case.Name, nil)
	measured := estimator.MeasurePrompt(exp.Case.Name, string(data))
	fmt.Printf("  Prompt: %s = %d tokens (static estimate: %d)\n",
		exp.Prompt.Filename, measured.Input, static.Input)
	return nil
}
