package in

import (
	"context"

	"exthub/internal/modules/registry/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Register(ctx context.Context, input dto.RegisterInput) (dto.PluginInfo, error)
	RegisterFromPath(ctx context.Context, packagePath string) (dto.PluginInfo, error)
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
	Uninstall(ctx context.Context, id string) error
	UpdateConfig(ctx context.Context, id string, config map[string]any) error
	Update(ctx context.Context, input dto.UpdateInput) (dto.PluginInfo, error)
	GetConfig(ctx context.Context, id string) (map[string]any, error)
	Probe(ctx context.Context, id string) (dto.ProbeResult, error)
}
