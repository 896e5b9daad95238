package dto

import "time"

type SessionInfo struct {
	ID        string
	CreatedAt time.Time
}

type GetOrCreateOutput struct {
	ID      string
	Created bool
}
