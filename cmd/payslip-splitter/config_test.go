// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/payslip-splitter/internal/directory"
	"github.com/pdiddy/payslip-splitter/internal/drive"
	"github.com/pdiddy/payslip-splitter/internal/secrets"
)

func newSplitCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSplitFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestSplitConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("output_dir", "out")

	cfg, err := splitConfig(newSplitCmd(t, "--period", "2024-01", "--overwrite", "--manifest", "m.csv"))
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "2024-01", cfg.DefaultPeriod)
	assert.True(t, cfg.Overwrite)
	assert.False(t, cfg.RequireFirstName)
	assert.Equal(t, "m.csv", cfg.Manifest)
	assert.Equal(t, defaultWorkers, cfg.Workers)
}

func TestSplitConfigRejectsBadPeriod(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, p := range []string{"2024-13", "24-01", "janvier"} {
		_, err := splitConfig(newSplitCmd(t, "--period", p))
		assert.Error(t, err, p)
	}
}

func TestDirectoryConfigToken(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	old := loadedSecrets
	t.Cleanup(func() { loadedSecrets = old })

	loadedSecrets = secrets.Secrets{secrets.KeyGitHubToken: "from-secrets"}
	viper.Set("employees.source", "employees.yaml")
	assert.Equal(t, "from-secrets", directoryConfig().Token)

	viper.Set("employees.token", "from-config")
	assert.Equal(t, "from-config", directoryConfig().Token)
}

func TestNewLoader(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("employees.source", filepath.Join(t.TempDir(), "employees.yaml"))
	l, err := newLoader()
	require.NoError(t, err)
	assert.IsType(t, directory.FileLoader{}, l)
}

func TestOpenTree(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("backend", "local")
	tree, err := openTree(context.Background(), true)
	require.NoError(t, err)
	assert.IsType(t, drive.LocalTree{}, tree)

	viper.Set("backend", "ftp")
	_, err = openTree(context.Background(), true)
	assert.Error(t, err)

	viper.Set("backend", "drive")
	viper.Set("drive.credentials", filepath.Join(t.TempDir(), "none.json"))
	_, err = openTree(context.Background(), true)
	assert.ErrorIs(t, err, drive.ErrNoCredentials)
}

func TestSetupLogging(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "DEBUG"} {
		assert.NoError(t, setupLogging(lvl), lvl)
	}
	assert.Error(t, setupLogging("verbose"))
}

func TestEmployeeDir(t *testing.T) {
	dir, err := employeeDir("output", " bernier ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("output", "bernier"), dir)

	for _, bad := range []string{"", "  ", ".", "..", "../secrets", "a/b", `a\b`} {
		_, err := employeeDir("output", bad)
		assert.Error(t, err, bad)
	}
}
