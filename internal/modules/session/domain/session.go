package domain

import "time"

// Session is a server-side handle for one client's ongoing interaction
// sequence. Sessions live for the lifetime of the manager; no eviction
// policy is defined.
type Session struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Context   map[string]any `json:"context,omitempty"`
}
