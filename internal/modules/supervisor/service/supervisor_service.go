package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"exthub/internal/modules/supervisor/domain"
	supout "exthub/internal/modules/supervisor/port/out"
	"exthub/internal/platform/clock"
	apperrors "exthub/internal/platform/errors"
	"exthub/internal/platform/keymutex"

	hclog "github.com/hashicorp/go-hclog"
)

const defaultGracePeriod = 5 * time.Second

// managed is one supervised child. The generation number decides which of
// crash-detected cleanup and explicit-stop cleanup commits the terminal
// transition; the loser observes a mismatch and becomes a no-op.
type managed struct {
	gen       uint64
	proc      supout.Process
	startedAt time.Time
	state     domain.State
}

// SupervisorService owns at most one live child process per server id.
// Operations on the same server id are serialized; a stop issued while a
// start is in flight waits for the start to resolve.
type SupervisorService struct {
	spawner supout.Spawner
	logger  hclog.Logger
	clock   clock.Clock
	locks   *keymutex.KeyMutex
	grace   time.Duration

	mu      sync.Mutex
	procs   map[string]*managed
	lastGen uint64
}

func NewSupervisorService(spawner supout.Spawner, logger hclog.Logger, clk clock.Clock) *SupervisorService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SupervisorService{
		spawner: spawner,
		logger:  logger,
		clock:   clk,
		locks:   keymutex.New(),
		grace:   defaultGracePeriod,
		procs:   map[string]*managed{},
	}
}

// SetGracePeriod overrides how long a graceful stop waits before escalating
// to a forceful kill.
func (s *SupervisorService) SetGracePeriod(grace time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grace > 0 {
		s.grace = grace
	}
}

// StartProcess launches the program for serverID, or returns the existing
// handle when one is already starting or running. Concurrent starts for the
// same id coalesce onto a single child.
func (s *SupervisorService) StartProcess(ctx context.Context, serverID string, spec domain.SpawnSpec) (domain.Handle, error) {
	if serverID == "" {
		return domain.Handle{}, fmt.Errorf("%w: server id is required", apperrors.ErrValidation)
	}
	if err := spec.Validate(); err != nil {
		return domain.Handle{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	s.locks.Lock(serverID)
	defer s.locks.Unlock(serverID)

	s.mu.Lock()
	if m, ok := s.procs[serverID]; ok {
		handle := s.handleLocked(serverID, m)
		s.mu.Unlock()
		return handle, nil
	}
	s.lastGen++
	m := &managed{gen: s.lastGen, state: domain.StateStarting, startedAt: s.clock.Now()}
	s.procs[serverID] = m
	s.mu.Unlock()

	proc, err := s.spawner.Spawn(ctx, spec)
	if err != nil {
		s.removeIfGen(serverID, m.gen)
		return domain.Handle{}, fmt.Errorf("%w: %s: %v", apperrors.ErrSpawn, serverID, err)
	}

	s.mu.Lock()
	m.proc = proc
	m.state = domain.StateRunning
	m.startedAt = s.clock.Now()
	handle := s.handleLocked(serverID, m)
	s.mu.Unlock()

	go s.watch(serverID, m)

	s.logger.Info("server started", "server_id", serverID, "pid", proc.PID())
	return handle, nil
}

// StopProcess terminates the child for serverID. It returns false when
// nothing is tracked for that id, which is not an error. A graceful stop that
// outlives the grace period escalates to a forceful kill; only a failure of
// the kill itself surfaces as an error.
func (s *SupervisorService) StopProcess(_ context.Context, serverID string) (bool, error) {
	s.locks.Lock(serverID)
	defer s.locks.Unlock(serverID)

	s.mu.Lock()
	m, ok := s.procs[serverID]
	if !ok || m.state != domain.StateRunning {
		s.mu.Unlock()
		return false, nil
	}
	m.state = domain.StateStopping
	grace := s.grace
	s.mu.Unlock()

	if err := m.proc.Terminate(); err != nil {
		s.logger.Debug("graceful terminate failed", "server_id", serverID, "error", err)
	}
	select {
	case <-m.proc.Done():
	case <-time.After(grace):
		s.logger.Warn("grace period elapsed, killing", "server_id", serverID, "pid", m.proc.PID())
		if err := m.proc.Kill(); err != nil {
			return false, fmt.Errorf("%w: %s: %v", domain.ErrKillFailed, serverID, err)
		}
		<-m.proc.Done()
	}

	s.removeIfGen(serverID, m.gen)
	s.logger.Info("server stopped", "server_id", serverID)
	return true, nil
}

// StopAllProcesses sweeps every tracked process. Individual stop failures are
// logged and do not abort the sweep; no entries remain afterwards.
func (s *SupervisorService) StopAllProcesses(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.procs))
	for serverID := range s.procs {
		ids = append(ids, serverID)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	for _, serverID := range ids {
		if _, err := s.StopProcess(ctx, serverID); err != nil {
			s.logger.Error("stop failed during sweep", "server_id", serverID, "error", err)
			s.forceRemove(serverID)
		}
	}
}

// Status reports the tracked state for serverID; Absent when untracked.
func (s *SupervisorService) Status(_ context.Context, serverID string) domain.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.procs[serverID]
	if !ok {
		return domain.Handle{ServerID: serverID, State: domain.StateAbsent}
	}
	return s.handleLocked(serverID, m)
}

// List returns a handle for every tracked process, sorted by server id.
func (s *SupervisorService) List(_ context.Context) []domain.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Handle, 0, len(s.procs))
	for serverID, m := range s.procs {
		out = append(out, s.handleLocked(serverID, m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return out
}

// watch detects termination the supervisor did not request and releases the
// entry so the id is immediately eligible for a fresh start.
func (s *SupervisorService) watch(serverID string, m *managed) {
	<-m.proc.Done()

	s.mu.Lock()
	cur, ok := s.procs[serverID]
	if !ok || cur.gen != m.gen || cur.state == domain.StateStopping {
		// An explicit stop owns this cleanup.
		s.mu.Unlock()
		return
	}
	delete(s.procs, serverID)
	s.mu.Unlock()

	s.logger.Warn("server exited unexpectedly",
		"server_id", serverID, "pid", m.proc.PID(), "error", m.proc.Err())
}

func (s *SupervisorService) handleLocked(serverID string, m *managed) domain.Handle {
	handle := domain.Handle{ServerID: serverID, StartedAt: m.startedAt, State: m.state}
	if m.proc != nil {
		handle.PID = m.proc.PID()
	}
	return handle
}

func (s *SupervisorService) removeIfGen(serverID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.procs[serverID]; ok && cur.gen == gen {
		delete(s.procs, serverID)
	}
}

func (s *SupervisorService) forceRemove(serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.procs, serverID)
}
