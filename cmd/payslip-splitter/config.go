// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/payslip-splitter/internal/directory"
	"github.com/pdiddy/payslip-splitter/internal/drive"
	"github.com/pdiddy/payslip-splitter/internal/period"
	"github.com/pdiddy/payslip-splitter/internal/secrets"
	"github.com/pdiddy/payslip-splitter/pkg/types"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultWorkers      = 4
	defaultUserAgent    = "payslip-splitter/0.1"
	defaultEmployeesURL = "https://raw.githubusercontent.com/TelesCoop/company-settings/main/employees.yaml"
)

func init() {
	viper.SetDefault("drive.credentials", "credentials.json")
	viper.SetDefault("drive.token", "token.json")
	viper.SetDefault("input_dir", "input")
	viper.SetDefault("backend", string(types.BackendDrive))
}

func mustBind(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// directoryConfig reads the employee list settings. The bearer token comes
// from employees.token or .secrets/github-token.
func directoryConfig() types.DirectoryConfig {
	return types.DirectoryConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Source:        viper.GetString("employees.source"),
		Token:         loadedSecrets.Get(secrets.KeyGitHubToken, viper.GetString("employees.token")),
		IncludeFormer: viper.GetBool("employees.include_former"),
	}
}

// splitConfig reads the split settings shared by split and process.
func splitConfig(cmd *cobra.Command) (types.SplitConfig, error) {
	cfg := types.SplitConfig{
		OutputDir: viper.GetString("output_dir"),
		Workers:   viper.GetInt("workers"),
	}
	flags := cmd.Flags()
	cfg.DefaultPeriod, _ = flags.GetString("period")
	cfg.Overwrite, _ = flags.GetBool("overwrite")
	cfg.RequireFirstName, _ = flags.GetBool("require-first-name")
	cfg.Manifest, _ = flags.GetString("manifest")

	if cfg.DefaultPeriod != "" && !period.Valid(cfg.DefaultPeriod) {
		return cfg, fmt.Errorf("invalid --period %q: want YYYY or YYYY-MM", cfg.DefaultPeriod)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return cfg, nil
}

// driveConfig reads the Drive backend settings.
func driveConfig() types.DriveConfig {
	return types.DriveConfig{
		CredentialsFile:   viper.GetString("drive.credentials"),
		TokenFile:         viper.GetString("drive.token"),
		SourceFolder:      viper.GetString("drive.source_folder"),
		RequestsPerSecond: viper.GetFloat64("drive.requests_per_second"),
	}
}

// newLoader builds the employee directory for the configured source.
func newLoader() (directory.Loader, error) {
	cfg := directoryConfig()
	return directory.FromConfig(cfg, &http.Client{Timeout: cfg.Timeout})
}

// openTree returns the storage backend named by --backend.
func openTree(ctx context.Context, readOnly bool) (drive.Tree, error) {
	backend := types.Backend(viper.GetString("backend"))
	switch backend {
	case types.BackendLocal:
		return drive.LocalTree{}, nil
	case types.BackendDrive:
		cfg := driveConfig()
		cfg.ReadOnly = readOnly
		client, err := drive.Authorize(ctx, cfg, os.Stdin, os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("authorizing drive: %w", err)
		}
		return drive.NewClient(ctx, client, cfg.RequestsPerSecond)
	default:
		return nil, fmt.Errorf("unknown backend %q (want drive or local)", backend)
	}
}

// addBackendFlag registers --backend on cmd.
func addBackendFlag(cmd *cobra.Command) {
	cmd.Flags().String("backend", string(types.BackendDrive), "storage backend: drive or local (folder ids are paths)")
}

// bindBackendFlag binds --backend for the running command only; several
// commands define it.
func bindBackendFlag(cmd *cobra.Command) {
	mustBind("backend", cmd.Flags().Lookup("backend"))
}

// addSplitFlags registers the flags read by splitConfig.
func addSplitFlags(cmd *cobra.Command) {
	cmd.Flags().String("period", "", "period used when none is found (YYYY or YYYY-MM)")
	cmd.Flags().Bool("overwrite", false, "replace existing output files")
	cmd.Flags().Bool("require-first-name", false, "also require the first name on a matched page")
	cmd.Flags().String("manifest", "", "write a CSV manifest of the output files")
}
