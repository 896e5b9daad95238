package domain

import (
	"errors"
	"fmt"
)

type Permission string

const (
	PermissionDocumentRead   Permission = "document:read"
	PermissionDocumentWrite  Permission = "document:write"
	PermissionSelectionRead  Permission = "selection:read"
	PermissionGeometryModify Permission = "geometry:modify"
	PermissionExport         Permission = "export"
	PermissionNetwork        Permission = "network"
)

type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportGRPC  Transport = "grpc"
)

var ErrPluginDisabled = errors.New("plugin is disabled")

// Manifest is the immutable descriptor of a plugin. It is replaced wholesale
// on update, never mutated in place.
type Manifest struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Version      string       `json:"version" yaml:"version"`
	Entrypoint   string       `json:"entrypoint" yaml:"entrypoint"`
	Transport    Transport    `json:"transport,omitempty" yaml:"transport,omitempty"`
	ConfigSchema ConfigSchema `json:"config_schema,omitempty" yaml:"config_schema,omitempty"`
	Permissions  []Permission `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// Validate checks field presence and permission tokens. ID uniqueness against
// the current entry set is the registry's concern, not the manifest's.
func (m Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("plugin id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if m.Entrypoint == "" {
		return fmt.Errorf("plugin entrypoint is required")
	}
	if m.Transport != "" {
		if err := m.Transport.Validate(); err != nil {
			return err
		}
	}
	seen := map[Permission]struct{}{}
	for _, permission := range m.Permissions {
		if err := permission.Validate(); err != nil {
			return err
		}
		if _, ok := seen[permission]; ok {
			return fmt.Errorf("duplicate permission: %s", permission)
		}
		seen[permission] = struct{}{}
	}
	return m.ConfigSchema.Validate()
}

func (p Permission) Validate() error {
	switch p {
	case PermissionDocumentRead, PermissionDocumentWrite, PermissionSelectionRead,
		PermissionGeometryModify, PermissionExport, PermissionNetwork:
		return nil
	default:
		return fmt.Errorf("unknown permission: %s", p)
	}
}

func (t Transport) Validate() error {
	switch t {
	case TransportStdio, TransportGRPC:
		return nil
	default:
		return fmt.Errorf("unknown transport: %s", t)
	}
}

func (m Manifest) HasPermission(permission Permission) bool {
	for _, p := range m.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// EffectiveTransport defaults to stdio when the manifest leaves it blank.
func (m Manifest) EffectiveTransport() Transport {
	if m.Transport == "" {
		return TransportStdio
	}
	return m.Transport
}
