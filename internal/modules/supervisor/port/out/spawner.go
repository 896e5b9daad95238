package out

import (
	"context"
	"io"

	"exthub/internal/modules/supervisor/domain"
)

// Process is a running child owned exclusively by the supervisor. Done is
// closed on any termination, graceful or not; Err reports the exit error
// once Done is closed. The streams are not shared with any other process.
type Process interface {
	PID() int
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Terminate() error
	Kill() error
	Done() <-chan struct{}
	Err() error
}

// Spawner launches external programs. Spawn returns once the program is
// ready to accept input, or fails within a bounded startup window.
type Spawner interface {
	Spawn(ctx context.Context, spec domain.SpawnSpec) (Process, error)
}
