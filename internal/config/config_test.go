package config

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
}

func TestLoadAppliesDefaultsWithNoFlagsOrFile(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd)
	require.NoError(t, InitFile(""))

	cfg := Load()
	assert.Equal(t, "./data", cfg.Root)
	assert.Equal(t, "repository", cfg.Partition)
	assert.False(t, cfg.Async)
	assert.Equal(t, "bolt", cfg.CacheBackend)
}

func TestLoadPrefersEnvOverDefaults(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd)
	t.Setenv("ROSID_ROOT", "/var/lib/rosid")
	require.NoError(t, InitFile(""))

	cfg := Load()
	assert.Equal(t, "/var/lib/rosid", cfg.Root)
}

func TestLoadPrefersFlagOverEnv(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("root", "/from/flag"))
	t.Setenv("ROSID_ROOT", "/from/env")
	require.NoError(t, InitFile(""))

	cfg := Load()
	assert.Equal(t, "/from/flag", cfg.Root)
}

func TestInitFileMissingExplicitPathReturnsError(t *testing.T) {
	resetViper()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd)
	err := InitFile(os.DevNull + "-does-not-exist.yaml")
	assert.Error(t, err)
}
