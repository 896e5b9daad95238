package service

import (
	"context"
	"fmt"

	"exthub/internal/modules/session/domain"
	"exthub/internal/platform/clock"
	apperrors "exthub/internal/platform/errors"
	"exthub/internal/platform/id"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// SessionService maps session ids to session state for the lifetime of the
// process. Creation is race-free: for any id, exactly one creation wins and
// later callers observe the created session.
type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	sessions cmap.ConcurrentMap[string, domain.Session]
}

func NewSessionService(clk clock.Clock, idGen id.Generator) *SessionService {
	return &SessionService{
		clock:    clk,
		idGen:    idGen,
		sessions: cmap.New[domain.Session](),
	}
}

// Create mints a fresh session under a generated id that never collides
// with an existing one.
func (s *SessionService) Create(_ context.Context) (domain.Session, error) {
	for {
		session := domain.Session{
			ID:        s.idGen.New(),
			CreatedAt: s.clock.Now(),
			Context:   map[string]any{},
		}
		if s.sessions.SetIfAbsent(session.ID, session) {
			return session, nil
		}
	}
}

// GetOrCreate returns the existing session for id unchanged, or creates one
// under the supplied id. Two concurrent calls with the same unknown id
// produce exactly one stored session.
func (s *SessionService) GetOrCreate(_ context.Context, sessionID string) (domain.Session, bool, error) {
	if sessionID == "" {
		return domain.Session{}, false, fmt.Errorf("%w: session id is required", apperrors.ErrValidation)
	}
	session := domain.Session{
		ID:        sessionID,
		CreatedAt: s.clock.Now(),
		Context:   map[string]any{},
	}
	if s.sessions.SetIfAbsent(sessionID, session) {
		return session, true, nil
	}
	existing, _ := s.sessions.Get(sessionID)
	return existing, false, nil
}

func (s *SessionService) Get(_ context.Context, sessionID string) (domain.Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: session %q", apperrors.ErrNotFound, sessionID)
	}
	return session, nil
}

func (s *SessionService) Count(_ context.Context) int {
	return s.sessions.Count()
}
