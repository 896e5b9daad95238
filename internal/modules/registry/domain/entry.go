package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusRegistered Status = "registered"
	StatusEnabled    Status = "enabled"
	StatusDisabled   Status = "disabled"
	StatusFailed     Status = "failed"
	StatusRemoved    Status = "removed"
)

func (s Status) Validate() error {
	switch s {
	case StatusRegistered, StatusEnabled, StatusDisabled, StatusFailed, StatusRemoved:
		return nil
	default:
		return fmt.Errorf("unknown plugin status: %s", s)
	}
}

// Entry is the registry's record of one known plugin. The registry is the
// sole writer; the plugin store is the durable mirror.
type Entry struct {
	Manifest     Manifest       `json:"manifest"`
	Enabled      bool           `json:"enabled"`
	Config       map[string]any `json:"config,omitempty"`
	Status       Status         `json:"status"`
	InstallPath  string         `json:"install_path,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so callers never alias the registry's own state.
func (e Entry) Clone() Entry {
	clone := e
	clone.Config = cloneConfig(e.Config)
	if e.Manifest.ConfigSchema != nil {
		schema := make(ConfigSchema, len(e.Manifest.ConfigSchema))
		for name, spec := range e.Manifest.ConfigSchema {
			schema[name] = spec
		}
		clone.Manifest.ConfigSchema = schema
	}
	if e.Manifest.Permissions != nil {
		clone.Manifest.Permissions = append([]Permission(nil), e.Manifest.Permissions...)
	}
	return clone
}

func cloneConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}
	clone := make(map[string]any, len(config))
	for key, value := range config {
		clone[key] = value
	}
	return clone
}
