package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"exthub/internal/modules/registry/domain"
	regout "exthub/internal/modules/registry/port/out"
	apperrors "exthub/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type SQLitePluginStore struct {
	db *sql.DB
}

func NewSQLitePluginStore(dbPath string) (regout.PluginStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLitePluginStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLitePluginStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS plugins (
  id TEXT PRIMARY KEY,
  manifest TEXT NOT NULL,
  enabled INTEGER NOT NULL,
  status TEXT NOT NULL,
  install_path TEXT,
  registered_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS plugin_configs (
  plugin_id TEXT PRIMARY KEY,
  config TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create plugin tables: %w", err)
	}
	return nil
}

func (s *SQLitePluginStore) GetPlugins(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.manifest, p.enabled, p.status, p.install_path, p.registered_at, p.updated_at, c.config
FROM plugins p LEFT JOIN plugin_configs c ON c.plugin_id = p.id
ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query plugins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.Entry
	for rows.Next() {
		var manifestJSON, status, registeredAt, updatedAt string
		var installPath, configJSON sql.NullString
		var enabled int
		if err := rows.Scan(&manifestJSON, &enabled, &status, &installPath, &registeredAt, &updatedAt, &configJSON); err != nil {
			return nil, fmt.Errorf("scan plugin row: %w", err)
		}
		entry := domain.Entry{
			Enabled:     enabled != 0,
			Status:      domain.Status(status),
			InstallPath: installPath.String,
		}
		if err := json.Unmarshal([]byte(manifestJSON), &entry.Manifest); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		if configJSON.Valid {
			if err := json.Unmarshal([]byte(configJSON.String), &entry.Config); err != nil {
				return nil, fmt.Errorf("decode config: %w", err)
			}
		}
		if entry.RegisteredAt, err = parseTime(registeredAt); err != nil {
			return nil, err
		}
		if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plugin rows: %w", err)
	}
	return entries, nil
}

func (s *SQLitePluginStore) GetPluginConfig(ctx context.Context, id string) (map[string]any, error) {
	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM plugin_configs WHERE plugin_id = ?`, id).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query plugin config: %w", err)
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}

func (s *SQLitePluginStore) SavePlugin(ctx context.Context, entry domain.Entry) error {
	manifestJSON, err := json.Marshal(entry.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	enabled := 0
	if entry.Enabled {
		enabled = 1
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO plugins (id, manifest, enabled, status, install_path, registered_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  manifest = excluded.manifest,
  enabled = excluded.enabled,
  status = excluded.status,
  install_path = excluded.install_path,
  updated_at = excluded.updated_at`,
		entry.Manifest.ID, string(manifestJSON), enabled, string(entry.Status),
		entry.InstallPath, formatTime(entry.RegisteredAt), formatTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save plugin: %w", err)
	}
	return nil
}

func (s *SQLitePluginStore) SavePluginConfig(ctx context.Context, id string, config map[string]any) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO plugin_configs (plugin_id, config) VALUES (?, ?)
ON CONFLICT(plugin_id) DO UPDATE SET config = excluded.config`,
		id, string(configJSON))
	if err != nil {
		return fmt.Errorf("save plugin config: %w", err)
	}
	return nil
}

func (s *SQLitePluginStore) DeletePlugin(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plugin_configs WHERE plugin_id = ?`, id); err != nil {
		return fmt.Errorf("delete plugin config: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plugins WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete plugin: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return t, nil
}
