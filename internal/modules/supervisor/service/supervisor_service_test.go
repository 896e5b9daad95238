package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"exthub/internal/modules/supervisor/domain"
	supout "exthub/internal/modules/supervisor/port/out"
	"exthub/internal/modules/supervisor/service"
	"exthub/internal/platform/clock"
	apperrors "exthub/internal/platform/errors"
)

type fakeProcess struct {
	pid        int
	done       chan struct{}
	closeOnce  sync.Once
	ignoreTerm bool
	killErr    error
	exits      atomic.Int32
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) exit() {
	p.closeOnce.Do(func() {
		p.exits.Add(1)
		close(p.done)
	})
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Stdin() io.WriteCloser { return nopWriteCloser{} }
func (p *fakeProcess) Stdout() io.Reader     { return nil }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) Err() error            { return nil }

func (p *fakeProcess) Terminate() error {
	if p.ignoreTerm {
		return nil
	}
	p.exit()
	return nil
}

func (p *fakeProcess) Kill() error {
	if p.killErr != nil {
		return p.killErr
	}
	p.exit()
	return nil
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(payload []byte) (int, error) { return len(payload), nil }
func (nopWriteCloser) Close() error                      { return nil }

type fakeSpawner struct {
	mu       sync.Mutex
	spawns   int
	nextPID  int
	spawnErr error
	configur func(*fakeProcess)
	procs    []*fakeProcess
}

func (f *fakeSpawner) Spawn(context.Context, domain.SpawnSpec) (supout.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	f.spawns++
	f.nextPID++
	proc := newFakeProcess(f.nextPID)
	if f.configur != nil {
		f.configur(proc)
	}
	f.procs = append(f.procs, proc)
	return proc, nil
}

func (f *fakeSpawner) spawnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spawns
}

func (f *fakeSpawner) last() *fakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.procs) == 0 {
		return nil
	}
	return f.procs[len(f.procs)-1]
}

func newSupervisor(spawner *fakeSpawner) *service.SupervisorService {
	svc := service.NewSupervisorService(spawner, nil, clock.SystemClock{})
	svc.SetGracePeriod(50 * time.Millisecond)
	return svc
}

func spec() domain.SpawnSpec {
	return domain.SpawnSpec{Command: "tool-server", Args: []string{"--stdio"}}
}

func TestStartThenStop(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	handle, err := svc.StartProcess(ctx, "srv-1", spec())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if handle.State != domain.StateRunning || handle.PID == 0 {
		t.Fatalf("unexpected handle: %+v", handle)
	}

	stopped, err := svc.StopProcess(ctx, "srv-1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !stopped {
		t.Fatalf("expected stop to report true")
	}
	if got := svc.Status(ctx, "srv-1"); got.State != domain.StateAbsent {
		t.Fatalf("expected absent after stop, got %s", got.State)
	}
}

func TestConcurrentStartsCoalesce(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	var wg sync.WaitGroup
	pids := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := svc.StartProcess(ctx, "srv-1", spec())
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			pids <- handle.PID
		}()
	}
	wg.Wait()
	close(pids)

	if got := spawner.spawnCount(); got != 1 {
		t.Fatalf("expected exactly one spawn, got %d", got)
	}
	first := -1
	for pid := range pids {
		if first == -1 {
			first = pid
		}
		if pid != first {
			t.Fatalf("starts returned different processes: %d vs %d", first, pid)
		}
	}

	if _, err := svc.StopProcess(ctx, "srv-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if exits := spawner.last().exits.Load(); exits != 1 {
		t.Fatalf("expected a single exit notification, got %d", exits)
	}
}

func TestStopUntrackedReturnsFalse(t *testing.T) {
	t.Parallel()
	svc := newSupervisor(&fakeSpawner{})
	stopped, err := svc.StopProcess(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("stop must not error for untracked id: %v", err)
	}
	if stopped {
		t.Fatalf("expected false for untracked id")
	}
}

func TestSpawnFailureLeavesAbsent(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{spawnErr: fmt.Errorf("no such binary")}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	_, err := svc.StartProcess(ctx, "srv-1", spec())
	if !errors.Is(err, apperrors.ErrSpawn) {
		t.Fatalf("expected spawn error, got %v", err)
	}
	if got := svc.Status(ctx, "srv-1"); got.State != domain.StateAbsent {
		t.Fatalf("expected absent after failed spawn, got %s", got.State)
	}

	// The id is immediately eligible for a fresh start.
	spawner.mu.Lock()
	spawner.spawnErr = nil
	spawner.mu.Unlock()
	if _, err := svc.StartProcess(ctx, "srv-1", spec()); err != nil {
		t.Fatalf("restart after failed spawn: %v", err)
	}
}

func TestGracefulTimeoutEscalatesToKill(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{configur: func(p *fakeProcess) { p.ignoreTerm = true }}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	if _, err := svc.StartProcess(ctx, "srv-1", spec()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopped, err := svc.StopProcess(ctx, "srv-1")
	if err != nil {
		t.Fatalf("escalated stop must not surface an error: %v", err)
	}
	if !stopped {
		t.Fatalf("expected stop to report true")
	}
	if exits := spawner.last().exits.Load(); exits != 1 {
		t.Fatalf("expected the kill to terminate the process once, got %d exits", exits)
	}
}

func TestKillFailureIsFatalReported(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{configur: func(p *fakeProcess) {
		p.ignoreTerm = true
		p.killErr = fmt.Errorf("operation not permitted")
	}}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	if _, err := svc.StartProcess(ctx, "srv-1", spec()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.StopProcess(ctx, "srv-1"); !errors.Is(err, domain.ErrKillFailed) {
		t.Fatalf("expected kill failure, got %v", err)
	}
}

func TestStopAllSweepsDespiteFailure(t *testing.T) {
	t.Parallel()
	failing := 0
	spawner := &fakeSpawner{configur: func(p *fakeProcess) {
		failing++
		if failing == 2 {
			p.ignoreTerm = true
			p.killErr = fmt.Errorf("stuck")
		}
	}}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	for _, id := range []string{"srv-1", "srv-2", "srv-3"} {
		if _, err := svc.StartProcess(ctx, id, spec()); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	svc.StopAllProcesses(ctx)

	if remaining := svc.List(ctx); len(remaining) != 0 {
		t.Fatalf("expected zero entries after sweep, got %d", len(remaining))
	}
}

func TestCrashFreesIDForRestart(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	if _, err := svc.StartProcess(ctx, "srv-1", spec()); err != nil {
		t.Fatalf("start: %v", err)
	}
	spawner.last().exit() // unsolicited termination

	deadline := time.After(2 * time.Second)
	for svc.Status(ctx, "srv-1").State != domain.StateAbsent {
		select {
		case <-deadline:
			t.Fatalf("crash was not detected")
		case <-time.After(5 * time.Millisecond):
		}
	}

	handle, err := svc.StartProcess(ctx, "srv-1", spec())
	if err != nil {
		t.Fatalf("restart after crash: %v", err)
	}
	if spawner.spawnCount() != 2 {
		t.Fatalf("expected a fresh process after crash, got %d spawns", spawner.spawnCount())
	}
	if handle.State != domain.StateRunning {
		t.Fatalf("expected running handle, got %+v", handle)
	}
}

func TestCrashDuringStopSingleCleanup(t *testing.T) {
	t.Parallel()
	spawner := &fakeSpawner{}
	svc := newSupervisor(spawner)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		serverID := fmt.Sprintf("srv-%d", i)
		if _, err := svc.StartProcess(ctx, serverID, spec()); err != nil {
			t.Fatalf("start: %v", err)
		}
		proc := spawner.last()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			proc.exit()
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.StopProcess(ctx, serverID); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
		wg.Wait()

		if got := svc.Status(ctx, serverID).State; got != domain.StateAbsent {
			t.Fatalf("expected absent after racing cleanup, got %s", got)
		}
		if exits := proc.exits.Load(); exits != 1 {
			t.Fatalf("expected one exit, got %d", exits)
		}
	}
}

func TestStartValidatesInput(t *testing.T) {
	t.Parallel()
	svc := newSupervisor(&fakeSpawner{})
	ctx := context.Background()

	if _, err := svc.StartProcess(ctx, "", spec()); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if _, err := svc.StartProcess(ctx, "srv-1", domain.SpawnSpec{}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for empty command, got %v", err)
	}
}
