package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/pkg/pantry"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// workspace holds the config and data directories of one test.
type workspace struct {
	configDir string
	dataDir   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	return workspace{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes one pantry command line in process.
func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", w.configDir, "--data-dir", w.dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (w workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(t, args...)
	require.NoError(t, err, "pantry %s", strings.Join(args, " "))
	return out
}

// createdID runs a command in JSON mode and returns the reported id.
func (w workspace) createdID(t *testing.T, args ...string) int64 {
	t.Helper()
	out := w.mustRun(t, append([]string{"--json"}, args...)...)
	var res struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	require.Positive(t, res.ID)
	return res.ID
}

func TestVersion(t *testing.T) {
	w := newWorkspace(t)
	out := w.mustRun(t, "version")
	assert.Contains(t, out, "pantry v"+pantry.Version)
	assert.Contains(t, out, pantry.ModulePath)
}

func TestInitWritesConfigAndSnapshot(t *testing.T) {
	w := newWorkspace(t)

	out := w.mustRun(t, "init")
	assert.Contains(t, out, "Pantry initialized successfully")
	assert.Contains(t, out, "Getting started:")

	assert.FileExists(t, paths.ConfigFile(w.configDir))
	assert.FileExists(t, filepath.Join(w.dataDir, types.DefaultSnapshotKey))

	out = w.mustRun(t, "init")
	assert.Contains(t, out, "Pantry initialized successfully")
	assert.NotContains(t, out, "Getting started:", "tips are shown once")
}

func TestShoppingScenario(t *testing.T) {
	w := newWorkspace(t)

	ana := w.createdID(t, "user", "add", "Ana", "--use")
	listID := w.createdID(t, "list", "create", "Feira")
	arroz := w.createdID(t, "item", "add", fmt.Sprint(listID), "Arroz", "--price", "5,00", "--qty", "2")
	w.createdID(t, "item", "add", fmt.Sprint(listID), "Feijao", "--price", "3.50")

	w.mustRun(t, "item", "check", fmt.Sprint(arroz))

	out := w.mustRun(t, "list", "show", fmt.Sprint(listID))
	assert.Contains(t, out, "Feira")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "Total: 13.50")

	out = w.mustRun(t, "--json", "finish", fmt.Sprint(listID))
	var receipt types.Receipt
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	assert.Equal(t, ana, receipt.Purchase.UserID)
	assert.InDelta(t, 10.00, receipt.Purchase.Total, 0.001)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, "Arroz", receipt.Items[0].Name)

	_, err := w.run(t, "finish", fmt.Sprint(listID))
	require.ErrorIs(t, err, types.ErrListCompleted)
	assert.Equal(t, exitUserError, ExitCode(err))

	out = w.mustRun(t, "--json", "history")
	var h types.History
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	assert.Equal(t, 1, h.PurchaseCount)
	assert.InDelta(t, 10.00, h.TotalAllTime, 0.001)

	out = w.mustRun(t, "receipt", fmt.Sprint(receipt.Purchase.ID))
	assert.Contains(t, out, "Arroz")
	assert.Contains(t, out, "Total: 10.00")
}

func TestItemUpdateKeepsUnsetFields(t *testing.T) {
	w := newWorkspace(t)
	w.createdID(t, "user", "add", "Ana", "--use")
	listID := w.createdID(t, "list", "create")
	itemID := w.createdID(t, "item", "add", fmt.Sprint(listID), "Leite", "--price", "4.20", "--qty", "3")

	w.mustRun(t, "item", "update", fmt.Sprint(listID), fmt.Sprint(itemID), "--price", "4,80")

	out := w.mustRun(t, "--json", "list", "show", fmt.Sprint(listID))
	var view struct {
		List  types.List       `json:"list"`
		Items []types.ListItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, types.DefaultListName, view.List.Name)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Leite", view.Items[0].Name)
	assert.InDelta(t, 4.80, view.Items[0].Price, 0.001)
	assert.Equal(t, 3, view.Items[0].Quantity)

	_, err := w.run(t, "item", "update", fmt.Sprint(listID), "999", "--name", "Pao")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTemplateRoundTrip(t *testing.T) {
	w := newWorkspace(t)
	w.createdID(t, "user", "add", "Ana", "--use")
	listID := w.createdID(t, "list", "create", "Semanal")
	w.createdID(t, "item", "add", fmt.Sprint(listID), "Leite", "--price", "4.20", "--qty", "6")

	templateID := w.createdID(t, "template", "save", fmt.Sprint(listID), "Base")
	out := w.mustRun(t, "template", "ls")
	assert.Contains(t, out, "Base")
	assert.Contains(t, out, "template")

	newList := w.createdID(t, "template", "use", fmt.Sprint(templateID), "Semana", "2")
	out = w.mustRun(t, "--json", "list", "show", fmt.Sprint(newList))
	var view struct {
		List  types.List       `json:"list"`
		Items []types.ListItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Semana 2", view.List.Name)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 6, view.Items[0].Quantity)
	assert.Zero(t, view.Items[0].Price)

	out = w.mustRun(t, "list", "ls")
	assert.NotContains(t, out, "Base", "templates are hidden by default")
	out = w.mustRun(t, "list", "ls", "--templates")
	assert.Contains(t, out, "Base")
}

func TestUserDeleteClearsActiveUser(t *testing.T) {
	w := newWorkspace(t)
	id := w.createdID(t, "user", "add", "Ana", "--use")

	out := w.mustRun(t, "user", "ls")
	assert.Contains(t, out, "*")
	assert.Contains(t, out, "Ana")

	w.mustRun(t, "user", "delete", fmt.Sprint(id))

	_, err := w.run(t, "list", "create")
	require.Error(t, err)
	assert.Equal(t, exitUserError, ExitCode(err))
	assert.Contains(t, err.Error(), "no active user")
}

func TestUserFlagOverridesActiveUser(t *testing.T) {
	w := newWorkspace(t)
	w.createdID(t, "user", "add", "Ana", "--use")
	bruno := w.createdID(t, "user", "add", "Bruno")

	w.createdID(t, "--user", fmt.Sprint(bruno), "list", "create", "Bruno's")

	out := w.mustRun(t, "list", "ls")
	assert.Equal(t, "No lists\n", out)
	out = w.mustRun(t, "--user", fmt.Sprint(bruno), "list", "ls")
	assert.Contains(t, out, "Bruno's")
}

func TestExportImport(t *testing.T) {
	w := newWorkspace(t)
	w.createdID(t, "user", "add", "Ana", "--use")
	backup := filepath.Join(t.TempDir(), "backup.json")
	w.mustRun(t, "export", backup)

	blob, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(blob, []byte("[")), "snapshot is a JSON byte array")

	other := newWorkspace(t)
	out := other.mustRun(t, "import", backup)
	assert.Contains(t, out, "Imported")
	out = other.mustRun(t, "user", "ls")
	assert.Contains(t, out, "Ana")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"bytes"}`), 0o644))
	_, err = other.run(t, "import", bad)
	assert.ErrorIs(t, err, types.ErrCorruptSnapshot)
	out = other.mustRun(t, "user", "ls")
	assert.Contains(t, out, "Ana", "failed import keeps the database")
}

func TestStats(t *testing.T) {
	w := newWorkspace(t)
	w.createdID(t, "user", "add", "Ana")
	textfile := filepath.Join(t.TempDir(), "pantry.prom")

	out := w.mustRun(t, "--json", "stats", "--textfile", textfile)
	var view statsView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, 1, view.Rows["users"])
	assert.Positive(t, view.SchemaVersion)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pantry_")
}

func TestInvalidArguments(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.run(t, "list", "show", "abc")
	require.Error(t, err)
	assert.Equal(t, exitUserError, ExitCode(err))

	_, err = w.run(t, "list", "ls", "--status", "open", "--user", "1")
	require.Error(t, err)
	assert.Equal(t, exitUserError, ExitCode(err))

	_, err = w.run(t, "list", "show", "42")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", usagef("bad"), exitUserError},
		{"wrapped domain", fmt.Errorf("x: %w", types.ErrNotOwner), exitUserError},
		{"config", fmt.Errorf("attach: %w", types.ErrStoreDriverUnknown), exitUserError},
		{"system", errors.New("disk on fire"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("writes defaults on first run", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cfg")
		cfg, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, types.BackendSQLite, cfg.Backend)
		assert.Equal(t, types.DefaultSnapshotKey, cfg.SnapshotKey)
		assert.Equal(t, types.FinalizeCompleted, cfg.FinalizePolicy)
		assert.Equal(t, types.StoreFile, cfg.Store.Driver)
		assert.FileExists(t, paths.ConfigFile(dir))
	})

	t.Run("file values are read", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(paths.ConfigFile(dir),
			[]byte("backend: sqlite\nfinalize_policy: all\nstore:\n  driver: memory\n"), 0o644))
		cfg, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, types.FinalizeAll, cfg.FinalizePolicy)
		assert.Equal(t, types.StoreMemory, cfg.Store.Driver)
		assert.Equal(t, types.DefaultSnapshotKey, cfg.SnapshotKey, "unset keys keep defaults")
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("PANTRY_STORE_DRIVER", "memory")
		t.Setenv("PANTRY_SNAPSHOT_KEY", "other_db")
		cfg, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, types.StoreMemory, cfg.Store.Driver)
		assert.Equal(t, "other_db", cfg.SnapshotKey)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(paths.ConfigFile(dir), []byte("backend: [unterminated\n"), 0o644))
		_, err := loadConfig(dir)
		assert.Error(t, err)
	})
}
