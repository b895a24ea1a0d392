package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/scigo-housing/pipeline"
)

// processCmd parses the raw data file into the processed CSV.
var processCmd = &cobra.Command{
	Use:               "process",
	Short:             "parse the raw data file into the processed table",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.RunStep(pipeline.StepProcess, func() error {
			table, err := pipeline.Process(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s processed %d rows into %s\n", ok("✓"), table.Rows(), cfg.Data.ProcessedData)
			return nil
		})
	},
}

// regressCmd trains and evaluates the model and writes the results.
var regressCmd = &cobra.Command{
	Use:               "regress",
	Short:             "train the random forest and write metrics and feature importances",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.RunStep(pipeline.StepRegress, func() error {
			result, err := pipeline.Regress(cfg)
			if err != nil {
				return err
			}
			pipeline.PrintSummary(cmd.OutOrStdout(), result)
			return nil
		})
	},
}

// visualizeCmd renders the importance chart and the feature histograms.
var visualizeCmd = &cobra.Command{
	Use:               "visualize",
	Short:             "render the feature importance and distribution charts",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return pipeline.RunStep(pipeline.StepVisualize, func() error {
			paths, err := pipeline.Visualize(cfg)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "%s chart written to %s\n", ok("✓"), path)
			}
			return nil
		})
	},
}

// runCmd executes process, regress and visualize in order.
var runCmd = &cobra.Command{
	Use:               "run",
	Short:             "run process, regress and visualize in order",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		result, err := pipeline.Run(cfg)
		if err != nil {
			return err
		}
		pipeline.PrintSummary(cmd.OutOrStdout(), result)
		return nil
	},
}
