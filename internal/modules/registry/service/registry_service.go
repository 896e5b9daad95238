package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"exthub/internal/modules/registry/domain"
	regout "exthub/internal/modules/registry/port/out"
	"exthub/internal/platform/clock"
	apperrors "exthub/internal/platform/errors"
	"exthub/internal/platform/keymutex"
)

// RegistryService owns the set of known plugins. It is the sole writer of
// entries; the plugin store is the durable mirror, read once at load time and
// written through on every mutation. Operations on the same plugin id are
// serialized; operations on distinct ids proceed independently.
type RegistryService struct {
	clock  clock.Clock
	store  regout.PluginStore
	loader regout.ManifestLoader
	prober regout.Prober
	locks  *keymutex.KeyMutex

	mu      sync.RWMutex
	entries map[string]domain.Entry
}

func NewRegistryService(clk clock.Clock, store regout.PluginStore, loader regout.ManifestLoader, prober regout.Prober) *RegistryService {
	return &RegistryService{
		clock:   clk,
		store:   store,
		loader:  loader,
		prober:  prober,
		locks:   keymutex.New(),
		entries: map[string]domain.Entry{},
	}
}

// Load reads the durable mirror into memory. Called once at startup before
// any other operation.
func (s *RegistryService) Load(ctx context.Context) error {
	stored, err := s.store.GetPlugins(ctx)
	if err != nil {
		return fmt.Errorf("%w: load plugins: %v", apperrors.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.Entry, len(stored))
	for _, entry := range stored {
		s.entries[entry.Manifest.ID] = entry.Clone()
	}
	return nil
}

// List returns the current in-memory view, sorted by id. It never touches
// the store.
func (s *RegistryService) List(_ context.Context) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.Status == domain.StatusRemoved {
			continue
		}
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.ID < out[j].Manifest.ID })
	return out, nil
}

func (s *RegistryService) Register(ctx context.Context, manifest domain.Manifest, installPath string) (domain.Entry, error) {
	if err := manifest.Validate(); err != nil {
		return domain.Entry{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	s.locks.Lock(manifest.ID)
	defer s.locks.Unlock(manifest.ID)

	if existing, ok := s.get(manifest.ID); ok && existing.Status != domain.StatusRemoved {
		return domain.Entry{}, fmt.Errorf("%w: plugin %q", apperrors.ErrDuplicateID, manifest.ID)
	}

	now := s.clock.Now()
	entry := domain.Entry{
		Manifest:     manifest,
		Enabled:      false,
		Status:       domain.StatusRegistered,
		InstallPath:  installPath,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := s.persist(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	s.commit(entry)
	return entry.Clone(), nil
}

// RegisterFromPath loads the manifest found under packagePath and registers
// it, recording packagePath as the install location.
func (s *RegistryService) RegisterFromPath(ctx context.Context, packagePath string) (domain.Entry, error) {
	manifest, err := s.loader.Load(ctx, packagePath)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("%w: load manifest from %s: %v", apperrors.ErrValidation, packagePath, err)
	}
	return s.Register(ctx, manifest, packagePath)
}

// Enable is idempotent: enabling an already-enabled plugin re-persists the
// same state and succeeds.
func (s *RegistryService) Enable(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, true)
}

func (s *RegistryService) Disable(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, false)
}

func (s *RegistryService) setEnabled(ctx context.Context, id string, enabled bool) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	entry, ok := s.getActive(id)
	if !ok {
		return fmt.Errorf("%w: plugin %q", apperrors.ErrNotFound, id)
	}
	next := entry.Clone()
	next.Enabled = enabled
	if enabled {
		next.Status = domain.StatusEnabled
	} else {
		next.Status = domain.StatusDisabled
	}
	next.UpdatedAt = s.clock.Now()
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// UpdateConfig replaces the plugin's config wholesale after validating it
// against the manifest's schema. Nothing is written on a validation failure.
func (s *RegistryService) UpdateConfig(ctx context.Context, id string, config map[string]any) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	entry, ok := s.getActive(id)
	if !ok {
		return fmt.Errorf("%w: plugin %q", apperrors.ErrNotFound, id)
	}
	if err := entry.Manifest.ConfigSchema.ValidateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.store.SavePluginConfig(ctx, id, config); err != nil {
		return fmt.Errorf("%w: save config for %q: %v", apperrors.ErrPersistence, id, err)
	}
	next := entry.Clone()
	next.Config = config
	next.UpdatedAt = s.clock.Now()
	s.commit(next)
	return nil
}

// Update merges the fields present in partial into the existing entry. An
// empty packagePath signals a metadata-only update with no code replacement.
// The resulting manifest is re-validated in full before committing.
type PartialUpdate struct {
	Manifest *domain.Manifest
	Config   map[string]any
}

func (s *RegistryService) Update(ctx context.Context, id string, partial PartialUpdate, packagePath string) (domain.Entry, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	entry, ok := s.getActive(id)
	if !ok {
		return domain.Entry{}, fmt.Errorf("%w: plugin %q", apperrors.ErrNotFound, id)
	}
	next := entry.Clone()

	if packagePath != "" {
		if s.loader == nil {
			return domain.Entry{}, fmt.Errorf("%w: no manifest loader configured", apperrors.ErrValidation)
		}
		loaded, err := s.loader.Load(ctx, packagePath)
		if err != nil {
			return domain.Entry{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		next.Manifest = loaded
		next.InstallPath = packagePath
	}
	if partial.Manifest != nil {
		next.Manifest = mergeManifest(next.Manifest, *partial.Manifest)
	}
	if next.Manifest.ID != id {
		return domain.Entry{}, fmt.Errorf("%w: manifest id %q does not match plugin %q", apperrors.ErrValidation, next.Manifest.ID, id)
	}
	if err := next.Manifest.Validate(); err != nil {
		return domain.Entry{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if partial.Config != nil {
		if err := next.Manifest.ConfigSchema.ValidateConfig(partial.Config); err != nil {
			return domain.Entry{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		next.Config = partial.Config
	}
	next.UpdatedAt = s.clock.Now()

	if err := s.persist(ctx, next); err != nil {
		return domain.Entry{}, err
	}
	if partial.Config != nil {
		if err := s.store.SavePluginConfig(ctx, id, partial.Config); err != nil {
			// Restore the mirror to the committed state before surfacing.
			_ = s.store.SavePlugin(ctx, entry)
			return domain.Entry{}, fmt.Errorf("%w: save config for %q: %v", apperrors.ErrPersistence, id, err)
		}
	}
	s.commit(next)
	return next.Clone(), nil
}

// GetConfig returns an empty config when none has been set. A missing plugin
// is not an error here; existence is the caller's separate concern.
func (s *RegistryService) GetConfig(_ context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok || entry.Status == domain.StatusRemoved || entry.Config == nil {
		return map[string]any{}, nil
	}
	return entry.Clone().Config, nil
}

// Uninstall marks the entry removed and deletes it from the durable mirror.
// The tombstone stays in memory so the id can be registered again.
func (s *RegistryService) Uninstall(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	entry, ok := s.get(id)
	if !ok || entry.Status == domain.StatusRemoved {
		return fmt.Errorf("%w: plugin %q", apperrors.ErrNotFound, id)
	}
	if err := s.store.DeletePlugin(ctx, id); err != nil {
		return fmt.Errorf("%w: delete plugin %q: %v", apperrors.ErrPersistence, id, err)
	}
	next := entry.Clone()
	next.Enabled = false
	next.Status = domain.StatusRemoved
	next.UpdatedAt = s.clock.Now()
	s.commit(next)
	return nil
}

// Probe briefly hosts the plugin to verify its lifecycle.
func (s *RegistryService) Probe(ctx context.Context, id string) (domain.ProbeReport, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || entry.Status == domain.StatusRemoved {
		return domain.ProbeReport{}, fmt.Errorf("%w: plugin %q", apperrors.ErrNotFound, id)
	}
	if !entry.Enabled {
		return domain.ProbeReport{}, fmt.Errorf("%w: %s", domain.ErrPluginDisabled, id)
	}
	if s.prober == nil {
		return domain.ProbeReport{}, fmt.Errorf("no prober configured")
	}
	return s.prober.Probe(ctx, entry.Clone())
}

func (s *RegistryService) get(id string) (domain.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// getActive hides uninstalled tombstones from operations that would
// otherwise resurrect them.
func (s *RegistryService) getActive(id string) (domain.Entry, bool) {
	entry, ok := s.get(id)
	if !ok || entry.Status == domain.StatusRemoved {
		return domain.Entry{}, false
	}
	return entry, true
}

func (s *RegistryService) commit(entry domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Manifest.ID] = entry
}

func (s *RegistryService) persist(ctx context.Context, entry domain.Entry) error {
	if err := s.store.SavePlugin(ctx, entry); err != nil {
		return fmt.Errorf("%w: save plugin %q: %v", apperrors.ErrPersistence, entry.Manifest.ID, err)
	}
	return nil
}

func mergeManifest(base, partial domain.Manifest) domain.Manifest {
	merged := base
	if partial.ID != "" {
		merged.ID = partial.ID
	}
	if partial.Name != "" {
		merged.Name = partial.Name
	}
	if partial.Version != "" {
		merged.Version = partial.Version
	}
	if partial.Entrypoint != "" {
		merged.Entrypoint = partial.Entrypoint
	}
	if partial.Transport != "" {
		merged.Transport = partial.Transport
	}
	if partial.ConfigSchema != nil {
		merged.ConfigSchema = partial.ConfigSchema
	}
	if partial.Permissions != nil {
		merged.Permissions = partial.Permissions
	}
	return merged
}
