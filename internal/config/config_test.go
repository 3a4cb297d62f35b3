// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solstrike-client/internal/economy"
)

var validConfigJSON = `{
    "rpc_url": "https://api.devnet.solana.com",
    "websocket_url": "wss://api.devnet.solana.com",
    "program_id": "3FFYCYGMqkjjpxMvGXu5XiRnZQtGJMN9r73Hh1yiBVjH",
    "commitment": "finalized",
    "retries": 5,
    "rounding_rule": "ceil",
    "seeds": {"treasury": "TREASURY_V2"},
    "debug_logging": true
}`

func setupTestConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "Valid config",
			file:    "config.json",
			content: validConfigJSON,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "wss://api.devnet.solana.com", cfg.WebSocketURL)
				assert.Equal(t, 5, cfg.Retries)
				assert.Equal(t, "TREASURY_V2", cfg.Seeds.Treasury)
				assert.Empty(t, cfg.Seeds.ChipMint)
				assert.True(t, cfg.DebugLogging)
				assert.Equal(t, economy.RoundCeil, cfg.Rounding())

				commitment, err := cfg.CommitmentType()
				require.NoError(t, err)
				assert.Equal(t, rpc.CommitmentFinalized, commitment)
				assert.False(t, cfg.ProgramKey().IsZero())
			},
		},
		{
			name:    "Defaults fill the gaps",
			file:    "config.yaml",
			content: "rpc_url: http://localhost:8899\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "ws://localhost:8899", cfg.WebSocketURL)
				assert.Equal(t, DefaultRetries, cfg.Retries)
				assert.Equal(t, DefaultSubscriptionBuffer, cfg.SubscriptionBuffer)
				assert.Equal(t, economy.RoundFloor, cfg.Rounding())
				assert.True(t, cfg.ProgramKey().IsZero())
				assert.True(t, cfg.TokenProgramKey().IsZero())
			},
		},
		{
			name:    "Invalid RPC scheme",
			file:    "config.json",
			content: `{"rpc_url": "ftp://example.com"}`,
			wantErr: true,
		},
		{
			name:    "Invalid program id",
			file:    "config.json",
			content: `{"program_id": "not-a-key"}`,
			wantErr: true,
		},
		{
			name:    "Invalid commitment",
			file:    "config.json",
			content: `{"commitment": "eventually"}`,
			wantErr: true,
		},
		{
			name:    "Invalid rounding rule",
			file:    "config.json",
			content: `{"rounding_rule": "bankers"}`,
			wantErr: true,
		},
		{
			name:    "Negative rate limit",
			file:    "config.json",
			content: `{"rpc_rate_limit": -1}`,
			wantErr: true,
		},
		{
			name:    "Negative retries",
			file:    "config.json",
			content: `{"retries": -1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(setupTestConfig(t, tt.file, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("SOLSTRIKE_RPC_URL", "https://rpc.example.com")
	t.Setenv("SOLSTRIKE_KEYPAIR_PATH", "/tmp/id.json")
	t.Setenv("SOLSTRIKE_SEEDS_CHIP_MINT", "CHIP_MINT_V2")
	t.Setenv("SOLSTRIKE_JOURNAL_DSN", "postgres://chips@localhost/journal")
	t.Setenv("SOLSTRIKE_RPC_RATE_LIMIT", "7.5")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com", cfg.RPCURL)
	assert.Equal(t, "wss://rpc.example.com", cfg.WebSocketURL)
	assert.Equal(t, "/tmp/id.json", cfg.KeypairPath)
	assert.Equal(t, "CHIP_MINT_V2", cfg.Seeds.ChipMint)
	assert.Equal(t, "postgres://chips@localhost/journal", cfg.JournalDSN)
	assert.Equal(t, 7.5, cfg.RPCRateLimit)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfigDerivedValues(t *testing.T) {
	cfg, err := LoadConfig(setupTestConfig(t, "config.json", validConfigJSON))
	require.NoError(t, err)

	seeds := cfg.PDASeeds()
	assert.Equal(t, []byte("TREASURY_V2"), seeds.Treasury)
	assert.Equal(t, []byte("CHIP_MINT"), seeds.ChipMint)

	pricing := cfg.Pricing()
	assert.Equal(t, economy.RoundCeil, pricing.Rule)
	assert.Zero(t, pricing.ChipDecimals)

	assert.Equal(t, 200*time.Millisecond, cfg.RetryDelayDuration())
	assert.Equal(t, time.Minute, cfg.ConfirmTimeoutDuration())
}
