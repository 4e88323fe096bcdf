package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, cfg.Agent.DeployInterval)
	assert.Equal(t, 5*time.Second, cfg.Agent.IdleSleep)
	assert.Equal(t, 60*time.Second, cfg.Agent.PollInterval)
	assert.Equal(t, 45*time.Minute, cfg.Agent.EngagementInterval)
	assert.Equal(t, "commands.json", cfg.Storage.CommandsPath)
	assert.Equal(t, "memory", cfg.Dedup.Backend)
	assert.Equal(t, "simulated", cfg.Chain.Mode)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  deploy_interval: 30m
farcaster:
  fid: "1234"
dedup:
  backend: duckdb
`), 0o644))

	t.Setenv("OPENCLAW_AGENT_IDLE_SLEEP", "2s")
	t.Setenv("FARCASTER_API_KEY", "legacy-key")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Agent.DeployInterval)
	assert.Equal(t, 2*time.Second, cfg.Agent.IdleSleep)
	assert.Equal(t, "1234", cfg.Farcaster.FID)
	assert.Equal(t, "legacy-key", cfg.Farcaster.APIKey)
	assert.Equal(t, "duckdb", cfg.Dedup.Backend)
}

func TestLoad_DecryptsSecrets(t *testing.T) {
	t.Setenv(SecretKeyEnv, "config-test-key")
	sk, err := NewSecretKey("")
	require.NoError(t, err)
	enc, err := sk.Encrypt("neynar-secret")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: debug\n"), 0o644))

	t.Setenv("OPENCLAW_FARCASTER_API_KEY", enc)
	cfg, err := Load(path, sk)
	require.NoError(t, err)
	assert.Equal(t, "neynar-secret", cfg.Farcaster.APIKey)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero deploy interval", func(c *Config) { c.Agent.DeployInterval = 0 }},
		{"unknown dedup backend", func(c *Config) { c.Dedup.Backend = "etcd" }},
		{"redis without addr", func(c *Config) { c.Dedup.Backend = "redis"; c.Dedup.RedisAddr = "" }},
		{"relay without url", func(c *Config) { c.Chain.Mode = "relay" }},
		{"unknown image mode", func(c *Config) { c.Image.Mode = "dalle-local" }},
		{"reputation without url", func(c *Config) { c.Reputation.Enabled = true }},
		{"negative batch delay", func(c *Config) { c.Agent.BatchDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_RelayURLIgnoresRPCNodeVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  mode: simulated\n"), 0o644))

	t.Setenv("RPC_URL", "https://sepolia.base.org")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Chain.RelayURL)

	t.Setenv("OPENCLAW_CHAIN_RELAY_URL", "https://relay.example")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://relay.example", cfg.Chain.RelayURL)
}
