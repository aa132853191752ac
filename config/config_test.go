package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowry/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// emptyConfig points Load at a file that sets nothing, so defaults apply
// without picking up a stray ./config.yaml.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, "{}\n")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load([]string{emptyConfig(t)}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5708, cfg.Server.Port)
	assert.Equal(t, "store", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "stowry.db", cfg.Database.DSN)
	assert.Equal(t, "stowry_metadata", cfg.Database.Tables.MetaData)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, "public", cfg.Auth.Read)
	assert.Equal(t, "private", cfg.Auth.Write)
	assert.Equal(t, "us-east-1", cfg.Auth.Region)
	assert.Equal(t, []string{"native", "aws"}, cfg.Auth.Schemes)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  mode: spa
auth:
  read: private
  keys:
    inline:
      - access_key: STWRTEST
        secret_key: test-secret-test-secret
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "spa", cfg.Server.Mode)
	assert.Equal(t, "private", cfg.Auth.Read)
	require.Len(t, cfg.Auth.Keys.Inline, 1)
	assert.Equal(t, "STWRTEST", cfg.Auth.Keys.Inline[0].ID)
}

func TestLoadFileMergeOrder(t *testing.T) {
	base := writeConfig(t, "server:\n  port: 9000\n")
	override := writeConfig(t, "server:\n  port: 9001\n")

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db-type", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "9100"}))

	cfg, err := config.Load([]string{path}, flags)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	// Unchanged flags must not clobber other sources with zero values.
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad mode", content: "server:\n  mode: proxy\n"},
		{name: "bad port", content: "server:\n  port: 99999\n"},
		{name: "bad scheme", content: "auth:\n  schemes: [hmac]\n"},
		{name: "bad auth mode", content: "auth:\n  read: open\n"},
		{name: "bad log level", content: "log:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load([]string{writeConfig(t, tt.content)}, nil)
			assert.Error(t, err)
		})
	}
}

func TestAuthConfigHelpers(t *testing.T) {
	auth := config.AuthConfig{
		Region:    "eu-west-1",
		Service:   "s3",
		Schemes:   []string{"native", "aws"},
		MaxExpiry: 3600,
		ClockSkew: 10,
	}

	vc := auth.VerifierConfig()
	assert.Equal(t, time.Hour, vc.MaxExpiry)
	assert.Equal(t, 10*time.Second, vc.ClockSkew)

	schemes := auth.EnabledSchemes()
	require.Len(t, schemes, 2)
	assert.Equal(t, "native", schemes[0].Name())
	assert.Equal(t, "aws-v4", schemes[1].Name())
}
