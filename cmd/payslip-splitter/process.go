// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/payslip-splitter/internal/ledger"
	"github.com/pdiddy/payslip-splitter/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process <dest-folder-id> [employee-filter] [source-folder-id]",
	Short: "Download payroll PDFs, split them, and upload the results",
	Long: `Process downloads the PDFs of the source folder tree (optionally only
those whose name contains the employee filter) into the input directory,
splits each one into "<period>-<doctype>-<Full Name>.pdf" files, and uploads
them to the destination folder. With a ledger configured, files already
uploaded with identical content are not uploaded again.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runProcess,
}

func init() {
	addBackendFlag(processCmd)
	addSplitFlags(processCmd)
	processCmd.Flags().String("input-dir", "input", "directory receiving downloaded PDFs")
	processCmd.Flags().String("ledger", "", "SQLite upload ledger (empty disables it)")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	bindBackendFlag(cmd)
	mustBind("input_dir", cmd.Flags().Lookup("input-dir"))
	mustBind("ledger", cmd.Flags().Lookup("ledger"))

	dest := args[0]
	var filter string
	if len(args) > 1 {
		filter = args[1]
	}
	source := viper.GetString("drive.source_folder")
	if len(args) > 2 {
		source = args[2]
	}
	if source == "" {
		return fmt.Errorf("no source folder given and drive.source_folder is not set")
	}

	cfg, err := splitConfig(cmd)
	if err != nil {
		return err
	}
	loader, err := newLoader()
	if err != nil {
		return err
	}
	tree, err := openTree(cmd.Context(), false)
	if err != nil {
		return err
	}

	var l *ledger.Ledger
	if path := viper.GetString("ledger"); path != "" {
		l, err = ledger.Open(path)
		if err != nil {
			return err
		}
		defer l.Close()
	}

	plan := pipeline.ProcessPlan(tree, source, filter, viper.GetString("input_dir"), tree, dest, l)
	r := &pipeline.Runner{Directory: loader, Config: cfg, Out: os.Stdout}
	rep, err := r.Run(cmd.Context(), plan)
	if err != nil {
		return err
	}

	fmt.Printf("\nDownloaded: %d file(s)\nCreated: %d pay slip(s)\nUploaded: %d file(s)\n",
		rep.Downloaded, rep.Created, rep.Uploaded)
	if rep.HasFailures() {
		return fmt.Errorf("%d item(s) failed", rep.Failures())
	}
	return nil
}
