package out

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"exthub/internal/modules/registry/domain"
	apperrors "exthub/internal/platform/errors"
)

func newTestStore(t *testing.T) *SQLitePluginStore {
	t.Helper()
	store, err := NewSQLitePluginStore(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store.(*SQLitePluginStore)
}

func testEntry(id string) domain.Entry {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return domain.Entry{
		Manifest: domain.Manifest{
			ID:         id,
			Name:       "Plugin " + id,
			Version:    "1.0.0",
			Entrypoint: "bin/" + id,
		},
		Status:       domain.StatusRegistered,
		InstallPath:  "/plugins/" + id,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

func TestSaveAndLoadPluginRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("p1")
	entry.Enabled = true
	entry.Status = domain.StatusEnabled
	if err := store.SavePlugin(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.GetPlugins(ctx)
	if err != nil {
		t.Fatalf("get plugins: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(loaded))
	}
	got := loaded[0]
	if got.Manifest.ID != "p1" || !got.Enabled || got.Status != domain.StatusEnabled {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if !got.RegisteredAt.Equal(entry.RegisteredAt) {
		t.Fatalf("registered_at = %v, want %v", got.RegisteredAt, entry.RegisteredAt)
	}
}

func TestSavePluginUpsertsExistingRow(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	entry := testEntry("p1")
	if err := store.SavePlugin(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}
	entry.Enabled = true
	entry.Status = domain.StatusEnabled
	entry.Manifest.Version = "1.1.0"
	if err := store.SavePlugin(ctx, entry); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := store.GetPlugins(ctx)
	if err != nil {
		t.Fatalf("get plugins: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 plugin after upsert, got %d", len(loaded))
	}
	if loaded[0].Manifest.Version != "1.1.0" || !loaded[0].Enabled {
		t.Fatalf("upsert did not apply: %+v", loaded[0])
	}
}

func TestGetPluginConfigDistinguishesMissingFromEmpty(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetPluginConfig(ctx, "p1"); !errors.Is(err, apperrors.ErrConfigNotFound) {
		t.Fatalf("expected config-not-found, got %v", err)
	}

	if err := store.SavePluginConfig(ctx, "p1", map[string]any{}); err != nil {
		t.Fatalf("save empty config: %v", err)
	}
	config, err := store.GetPluginConfig(ctx, "p1")
	if err != nil {
		t.Fatalf("get empty config: %v", err)
	}
	if config == nil || len(config) != 0 {
		t.Fatalf("expected stored empty config, got %v", config)
	}
}

func TestDeletePluginRemovesConfigToo(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SavePlugin(ctx, testEntry("p1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SavePluginConfig(ctx, "p1", map[string]any{"x": 1}); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := store.DeletePlugin(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	loaded, err := store.GetPlugins(ctx)
	if err != nil {
		t.Fatalf("get plugins: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no plugins after delete, got %d", len(loaded))
	}
	if _, err := store.GetPluginConfig(ctx, "p1"); !errors.Is(err, apperrors.ErrConfigNotFound) {
		t.Fatalf("expected config removed, got %v", err)
	}
}

func TestLoadJoinsConfigOntoEntry(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SavePlugin(ctx, testEntry("p1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SavePluginConfig(ctx, "p1", map[string]any{"threshold": 0.5}); err != nil {
		t.Fatalf("save config: %v", err)
	}

	loaded, err := store.GetPlugins(ctx)
	if err != nil {
		t.Fatalf("get plugins: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(loaded))
	}
	if loaded[0].Config["threshold"] != 0.5 {
		t.Fatalf("config not joined: %v", loaded[0].Config)
	}
}

func TestGetConfigEmptyStore(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	loaded, err := store.GetPlugins(context.Background())
	if err != nil {
		t.Fatalf("get plugins: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty store, got %d entries", len(loaded))
	}
}
