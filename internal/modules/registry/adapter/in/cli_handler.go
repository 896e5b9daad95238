package in

import (
	"context"

	"exthub/internal/modules/registry/dto"
	regin "exthub/internal/modules/registry/port/in"
)

type CLIHandler struct {
	usecase regin.Usecase
}

func NewCLIHandler(usecase regin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Register(ctx context.Context, input dto.RegisterInput) (dto.PluginInfo, error) {
	return h.usecase.Register(ctx, input)
}

func (h CLIHandler) RegisterFromPath(ctx context.Context, packagePath string) (dto.PluginInfo, error) {
	return h.usecase.RegisterFromPath(ctx, packagePath)
}

func (h CLIHandler) Enable(ctx context.Context, id string) error {
	return h.usecase.Enable(ctx, id)
}

func (h CLIHandler) Disable(ctx context.Context, id string) error {
	return h.usecase.Disable(ctx, id)
}

func (h CLIHandler) Uninstall(ctx context.Context, id string) error {
	return h.usecase.Uninstall(ctx, id)
}

func (h CLIHandler) UpdateConfig(ctx context.Context, id string, config map[string]any) error {
	return h.usecase.UpdateConfig(ctx, id, config)
}

func (h CLIHandler) Update(ctx context.Context, input dto.UpdateInput) (dto.PluginInfo, error) {
	return h.usecase.Update(ctx, input)
}

func (h CLIHandler) GetConfig(ctx context.Context, id string) (map[string]any, error) {
	return h.usecase.GetConfig(ctx, id)
}

func (h CLIHandler) Probe(ctx context.Context, id string) (dto.ProbeResult, error) {
	return h.usecase.Probe(ctx, id)
}
