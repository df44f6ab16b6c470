// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the payslip-splitter CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/payslip-splitter/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds tokens loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the payslip-splitter CLI.
var rootCmd = &cobra.Command{
	Use:   "payslip-splitter",
	Short: "Split payroll PDFs into one file per employee",
	Long: `payslip-splitter takes a PDF holding many employees' pay slips, finds
the pages that belong to each employee of the company directory, and writes
one PDF per employee named by pay period.

The split command works on local files. The download and process commands
read from a Google Drive folder tree (or a local one with --backend local);
process also uploads the split files to a destination folder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(viper.GetString("log_level")); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./payslip-splitter.yaml or ~/.config/payslip-splitter/payslip-splitter.yaml)")
	pf.String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
	pf.String("employees", defaultEmployeesURL, "employee list URL or path")
	pf.Bool("include-former", false, "also match employees with current_employee: false")
	pf.String("output-dir", "output", "directory receiving the split PDFs")
	pf.Int("workers", 0, "parallel page extraction workers (default 4)")

	mustBind("log_level", pf.Lookup("log-level"))
	mustBind("employees.source", pf.Lookup("employees"))
	mustBind("employees.include_former", pf.Lookup("include-former"))
	mustBind("output_dir", pf.Lookup("output-dir"))
	mustBind("workers", pf.Lookup("workers"))
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("payslip-splitter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "payslip-splitter"))
		}
	}

	viper.SetEnvPrefix("PAYSLIP_SPLITTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
