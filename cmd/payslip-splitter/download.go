// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/payslip-splitter/internal/pipeline"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <employee> [folder-id]",
	Short: "Download one employee's documents from the archive",
	Long: `Download searches the folder tree recursively for PDFs whose name
contains the employee filter and saves them to <output-dir>/<employee>/,
which is emptied first. Files are renamed
"<period>-<doctype>-<Full Name>.pdf" after the employee the filter resolves
to in the directory; the period and document type come from the enclosing
folders or the file name. The folder defaults to drive.source_folder.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	addBackendFlag(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	bindBackendFlag(cmd)
	employee := args[0]
	folder := viper.GetString("drive.source_folder")
	if len(args) > 1 {
		folder = args[1]
	}
	if folder == "" {
		return fmt.Errorf("no folder given and drive.source_folder is not set")
	}
	dest, err := employeeDir(viper.GetString("output_dir"), employee)
	if err != nil {
		return err
	}

	loader, err := newLoader()
	if err != nil {
		return err
	}
	tree, err := openTree(cmd.Context(), true)
	if err != nil {
		return err
	}

	r := &pipeline.Runner{Directory: loader, Out: os.Stdout}
	rep, err := r.Run(cmd.Context(), pipeline.DownloadPlan(tree, folder, employee, dest))
	if err != nil {
		return err
	}
	if rep.HasFailures() {
		return fmt.Errorf("%d file(s) failed to download", rep.DownloadFailed)
	}
	return nil
}

// employeeDir returns the download destination for employee under outputDir.
// The directory is emptied before downloading, so the filter must name a
// single child of outputDir.
func employeeDir(outputDir, employee string) (string, error) {
	name := strings.TrimSpace(employee)
	if name == "" || name == "." || name == ".." || name != types.SafeName(name) {
		return "", fmt.Errorf("invalid employee filter %q: must be a plain name", employee)
	}
	return filepath.Join(outputDir, name), nil
}
