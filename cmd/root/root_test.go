package root_test

import (
	"os"
	"testing"

	"fjacquet/statement-import/cmd/root"
	"fjacquet/statement-import/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	root.Init()
	os.Exit(m.Run())
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "statement-import", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "statements")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"input", "i"},
		{"output", "o"},
		{"format", "f"},
		{"delimiter", ""},
		{"log-level", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	root.ApplyFlagOverrides(cfg, root.CommonFlags{Format: "csv", Delimiter: ";", LogLevel: "debug"})

	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, ";", cfg.Output.Delimiter)
	assert.Equal(t, "debug", cfg.Log.Level)

	untouched := config.DefaultConfig()
	root.ApplyFlagOverrides(untouched, root.CommonFlags{})
	assert.Equal(t, config.DefaultConfig().Output, untouched.Output)
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	original := root.AppConfig
	defer func() { root.AppConfig = original }()

	root.AppConfig = nil
	assert.Equal(t, config.DefaultConfig(), root.GetConfig())
}

func TestInitialize(t *testing.T) {
	originalConfig, originalContainer := root.AppConfig, root.AppContainer
	defer func() {
		root.AppConfig = originalConfig
		root.AppContainer = originalContainer
	}()

	require.NoError(t, root.Initialize(&cobra.Command{Use: "test"}))

	assert.NotNil(t, root.GetContainer())
	assert.NotNil(t, root.GetConfig())
	assert.NotNil(t, root.GetLogrusAdapter())
	assert.Same(t, root.AppConfig, root.GetContainer().GetConfig())
}
