package dto

import "time"

type StartInput struct {
	ServerID string
	Command  string
	Args     []string
	Env      map[string]string
	Dir      string
}

type ServerInfo struct {
	ServerID  string
	PID       int
	State     string
	StartedAt time.Time
}
