package out

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"exthub/internal/modules/supervisor/domain"
	supout "exthub/internal/modules/supervisor/port/out"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultReadyWindow  = 250 * time.Millisecond
	stderrCaptureLimit  = 4096
	readyProbeInterval  = 25 * time.Millisecond
	readyProbeMaxJitter = 200 * time.Millisecond
)

// ExecSpawner launches stdio-transport servers with os/exec. A child counts
// as ready once it survives the startup window without exiting; a child that
// dies inside the window surfaces its captured stderr.
type ExecSpawner struct {
	readyWindow time.Duration
}

func NewExecSpawner() supout.Spawner {
	return &ExecSpawner{readyWindow: defaultReadyWindow}
}

func (s *ExecSpawner) Spawn(ctx context.Context, spec domain.SpawnSpec) (supout.Process, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = os.Environ()
	for key, value := range spec.Env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &cappedBuffer{limit: stderrCaptureLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Command, err)
	}

	proc := &execProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go func() {
		proc.exitErr = cmd.Wait()
		close(proc.done)
	}()

	if err := s.awaitReady(ctx, proc); err != nil {
		_ = proc.Kill()
		return nil, err
	}
	return proc, nil
}

// awaitReady polls the child through the startup window. Exit within the
// window is a permanent failure; the window itself bounds the suspension.
func (s *ExecSpawner) awaitReady(ctx context.Context, proc *execProcess) error {
	deadline := time.Now().Add(s.readyWindow)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = readyProbeInterval
	policy.MaxInterval = readyProbeMaxJitter
	policy.MaxElapsedTime = s.readyWindow + time.Second

	probe := func() error {
		select {
		case <-proc.done:
			return backoff.Permanent(fmt.Errorf("exited during startup: %v; stderr: %s", proc.Err(), proc.stderr.String()))
		default:
		}
		if time.Now().Before(deadline) {
			return fmt.Errorf("warming up")
		}
		return nil
	}
	return backoff.Retry(probe, backoff.WithContext(policy, ctx))
}

type execProcess struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.Reader
	stderr  *cappedBuffer
	done    chan struct{}
	exitErr error
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Stdin() io.WriteCloser {
	return p.stdin
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Kill() error {
	err := p.cmd.Process.Kill()
	if err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Err() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// cappedBuffer keeps the tail of what was written, bounded by limit.
type cappedBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (b *cappedBuffer) Write(payload []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, payload...)
	if len(b.data) > b.limit {
		b.data = b.data[len(b.data)-b.limit:]
	}
	return len(payload), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}
