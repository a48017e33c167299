package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreOxiDB, cfg.Store)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10000, cfg.MaxSessions)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxienroll.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
store: sqlite
sqlitePath: /tmp/enroll.db
sessionTTL: 30m
poolSize: 5
`), 0o644))

	t.Setenv("OXIENROLL_ADDR", ":9100")
	t.Setenv("OXIENROLL_POOL_SIZE", "x1")
	t.Setenv("OXIENROLL_TOKEN_TTL", "90m")
	t.Setenv("OXIENROLL_MAX_SESSIONS", "500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/tmp/enroll.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 500, cfg.MaxSessions)
	assert.Equal(t, 5, cfg.PoolSize, "malformed env value falls back to the file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("OXIENROLL_STORE", "mongo")
	_, err := Load("")
	assert.ErrorContains(t, err, "store must be")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
