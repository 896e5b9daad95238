package out

import (
	"context"

	"exthub/internal/modules/registry/domain"
)

// PluginStore is the durable mirror of the registry. GetPluginConfig must
// distinguish "no config stored" (apperrors.ErrConfigNotFound) from an empty
// config value.
type PluginStore interface {
	GetPlugins(ctx context.Context) ([]domain.Entry, error)
	GetPluginConfig(ctx context.Context, id string) (map[string]any, error)
	SavePlugin(ctx context.Context, entry domain.Entry) error
	SavePluginConfig(ctx context.Context, id string, config map[string]any) error
	DeletePlugin(ctx context.Context, id string) error
}

// ManifestLoader reads a manifest descriptor from a plugin package on disk.
type ManifestLoader interface {
	Load(ctx context.Context, packagePath string) (domain.Manifest, error)
}

// Prober checks the lifecycle of an installed plugin by briefly hosting it.
type Prober interface {
	Probe(ctx context.Context, entry domain.Entry) (domain.ProbeReport, error)
}
