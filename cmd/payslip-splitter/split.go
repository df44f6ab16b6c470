// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/payslip-splitter/internal/pipeline"
)

var splitCmd = &cobra.Command{
	Use:   "split <input.pdf>...",
	Short: "Split local payroll PDFs into one file per employee",
	Long: `Split reads each input PDF, attributes its pages to employees by last
name, and writes "<period> <Full Name>.pdf" files to the output directory.
The period comes from the parent folder name, the file name, or the
"Période de paie" line of the first pages. Existing files are skipped unless
--overwrite is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	addSplitFlags(splitCmd)
	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := splitConfig(cmd)
	if err != nil {
		return err
	}
	loader, err := newLoader()
	if err != nil {
		return err
	}

	r := &pipeline.Runner{Directory: loader, Config: cfg, Out: os.Stdout}
	rep, err := r.Run(cmd.Context(), pipeline.SplitPlan(args...))
	if err != nil {
		return err
	}
	if rep.HasFailures() {
		return fmt.Errorf("%d input(s) failed", rep.Failures())
	}
	return nil
}
