package domain

import (
	"errors"
	"fmt"
	"time"
)

// State is the per-server lifecycle: Absent -> Starting -> Running ->
// Stopping -> Absent, with an unsolicited exit taking Running straight back
// to Absent.
type State string

const (
	StateAbsent   State = "absent"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

var (
	ErrKillFailed = errors.New("forceful kill failed")
)

// SpawnSpec describes how to launch an external tool-provider program.
type SpawnSpec struct {
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
}

func (s SpawnSpec) Validate() error {
	if s.Command == "" {
		return fmt.Errorf("spawn command is required")
	}
	return nil
}

// Handle is the caller-facing view of a supervised process.
type Handle struct {
	ServerID  string
	PID       int
	StartedAt time.Time
	State     State
}
