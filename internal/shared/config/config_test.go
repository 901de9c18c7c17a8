package config

import (
	"StickyBus/internal/sticky"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range bindings {
		t.Setenv(env, "")
	}
}

func TestFromViper_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.True(t, cfg.DevMode())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.BusName)
	assert.Equal(t, sticky.PolicyReplace, cfg.DuplicatePolicy)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.False(t, cfg.PersistenceEnabled())
	assert.False(t, cfg.RelayEnabled())
}

func TestFromViper_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STICKY_BUS_NAME", "home")
	t.Setenv("STICKY_DUPLICATE_POLICY", "reject")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9100")
	t.Setenv("DATABASE_URL", "postgres://localhost/sticky")
	t.Setenv("DATABASE_MAX_CONNS", "8")
	t.Setenv("ENCRYPTION_KEY", strings.Repeat("ab", 32))
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("TELEGRAM_SILENT", "true")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.False(t, cfg.DevMode())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "home", cfg.BusName)
	assert.Equal(t, sticky.PolicyReject, cfg.DuplicatePolicy)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, int32(8), cfg.DBMaxConns)
	assert.True(t, cfg.PersistenceEnabled())
	assert.True(t, cfg.RelayEnabled())
	assert.Equal(t, int64(-1001), cfg.TelegramChatID)
	assert.True(t, cfg.TelegramSilent)
}

func TestFromViper_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown policy",
			env:  map[string]string{"STICKY_DUPLICATE_POLICY": "first-wins"},
			want: "STICKY_DUPLICATE_POLICY",
		},
		{
			name: "key without database",
			env:  map[string]string{"ENCRYPTION_KEY": strings.Repeat("ab", 32)},
			want: "DATABASE_URL",
		},
		{
			name: "short key",
			env:  map[string]string{"DATABASE_URL": "postgres://x", "ENCRYPTION_KEY": "abcd"},
			want: "64-character",
		},
		{
			name: "non-hex key",
			env:  map[string]string{"DATABASE_URL": "postgres://x", "ENCRYPTION_KEY": strings.Repeat("zz", 32)},
			want: "not valid hex",
		},
		{
			name: "token without chat",
			env:  map[string]string{"TELEGRAM_TOKEN": "123:abc"},
			want: "TELEGRAM_CHAT_ID",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
