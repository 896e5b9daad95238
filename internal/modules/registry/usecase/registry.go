package usecase

import (
	"context"

	"exthub/internal/modules/registry/domain"
	"exthub/internal/modules/registry/dto"
	regin "exthub/internal/modules/registry/port/in"
	"exthub/internal/modules/registry/service"
)

type Interactor struct {
	svc *service.RegistryService
}

func NewInteractor(svc *service.RegistryService) regin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.PluginInfo, error) {
	entries, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toPluginInfo(entry))
	}
	return out, nil
}

func (i *Interactor) Register(ctx context.Context, input dto.RegisterInput) (dto.PluginInfo, error) {
	entry, err := i.svc.Register(ctx, toManifest(input.Manifest), input.InstallPath)
	if err != nil {
		return dto.PluginInfo{}, err
	}
	return toPluginInfo(entry), nil
}

func (i *Interactor) RegisterFromPath(ctx context.Context, packagePath string) (dto.PluginInfo, error) {
	entry, err := i.svc.RegisterFromPath(ctx, packagePath)
	if err != nil {
		return dto.PluginInfo{}, err
	}
	return toPluginInfo(entry), nil
}

func (i *Interactor) Enable(ctx context.Context, id string) error {
	return i.svc.Enable(ctx, id)
}

func (i *Interactor) Disable(ctx context.Context, id string) error {
	return i.svc.Disable(ctx, id)
}

func (i *Interactor) Uninstall(ctx context.Context, id string) error {
	return i.svc.Uninstall(ctx, id)
}

func (i *Interactor) UpdateConfig(ctx context.Context, id string, config map[string]any) error {
	return i.svc.UpdateConfig(ctx, id, config)
}

func (i *Interactor) Update(ctx context.Context, input dto.UpdateInput) (dto.PluginInfo, error) {
	partial := service.PartialUpdate{Config: input.Config}
	if input.Manifest != nil {
		manifest := toManifest(*input.Manifest)
		partial.Manifest = &manifest
	}
	entry, err := i.svc.Update(ctx, input.ID, partial, input.PackagePath)
	if err != nil {
		return dto.PluginInfo{}, err
	}
	return toPluginInfo(entry), nil
}

func (i *Interactor) GetConfig(ctx context.Context, id string) (map[string]any, error) {
	return i.svc.GetConfig(ctx, id)
}

func (i *Interactor) Probe(ctx context.Context, id string) (dto.ProbeResult, error) {
	report, err := i.svc.Probe(ctx, id)
	if err != nil {
		return dto.ProbeResult{}, err
	}
	return dto.ProbeResult{
		ID:       id,
		Name:     report.Name,
		Version:  report.Version,
		Healthy:  true,
		Commands: report.Commands,
	}, nil
}

func toManifest(input dto.ManifestInput) domain.Manifest {
	manifest := domain.Manifest{
		ID:         input.ID,
		Name:       input.Name,
		Version:    input.Version,
		Entrypoint: input.Entrypoint,
		Transport:  domain.Transport(input.Transport),
	}
	if input.ConfigSchema != nil {
		schema := make(domain.ConfigSchema, len(input.ConfigSchema))
		for name, spec := range input.ConfigSchema {
			schema[name] = domain.PropertySpec{Type: domain.PropertyType(spec.Type), Required: spec.Required}
		}
		manifest.ConfigSchema = schema
	}
	for _, permission := range input.Permissions {
		manifest.Permissions = append(manifest.Permissions, domain.Permission(permission))
	}
	return manifest
}

func toPluginInfo(entry domain.Entry) dto.PluginInfo {
	permissions := make([]string, 0, len(entry.Manifest.Permissions))
	for _, permission := range entry.Manifest.Permissions {
		permissions = append(permissions, string(permission))
	}
	return dto.PluginInfo{
		ID:          entry.Manifest.ID,
		Name:        entry.Manifest.Name,
		Version:     entry.Manifest.Version,
		Entrypoint:  entry.Manifest.Entrypoint,
		Transport:   string(entry.Manifest.EffectiveTransport()),
		Enabled:     entry.Enabled,
		Status:      string(entry.Status),
		InstallPath: entry.InstallPath,
		Permissions: permissions,
	}
}
