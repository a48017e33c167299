package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OXIENROLL_STORE", "sqlite")
	t.Setenv("OXIENROLL_SQLITE_PATH", filepath.Join(dir, "enroll.db"))
	t.Setenv("OXIENROLL_LOG_LEVEL", "error")

	out, err := runCmd(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration seeded")
	assert.Contains(t, out, `admin account "admin" ready`)

	out, err = runCmd(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "already present")

	out, err = runCmd(t, "seed", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration seeded")

	out, err = runCmd(t, "seed", "--reset-admin")
	require.NoError(t, err)
	assert.Contains(t, out, `admin account "admin" ready`)

	_, err = runCmd(t, "seed", "--file", filepath.Join(dir, "missing.jsonc"))
	assert.Error(t, err)
}

func TestUnknownStore(t *testing.T) {
	t.Setenv("OXIENROLL_STORE", "postgres")
	_, err := runCmd(t, "seed")
	assert.Error(t, err)
}
