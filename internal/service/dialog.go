package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/policy"
	"github.com/parleyhq/parley/internal/store"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownDomain   = errors.New("unknown knowledge domain")
)

// DialogService owns the dialog sessions: one policy instance per session,
// per-session turn serialization, and persistence of sessions and the turn
// log.
type DialogService struct {
	sessionStore domain.SessionStore
	turnStore    domain.TurnStore
	sources      map[string]domain.KnowledgeSource
	logger       *zap.Logger

	mu     sync.Mutex
	active map[uuid.UUID]*dialogState
}

// dialogState is the in-process side of one session: the policy instance
// that owns the suggestion-browsing state, the session row it advances, and
// the lock serializing its turns.
type dialogState struct {
	mu       sync.Mutex
	policy   domain.PolicyStrategy
	sess     *domain.Session
	lastUsed time.Time
}

func NewDialogService(ss domain.SessionStore, ts domain.TurnStore, sources map[string]domain.KnowledgeSource, logger *zap.Logger) *DialogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DialogService{
		sessionStore: ss,
		turnStore:    ts,
		sources:      sources,
		logger:       logger,
		active:       make(map[uuid.UUID]*dialogState),
	}
}

// Domains lists the registered knowledge domains in name order.
func (s *DialogService) Domains() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the knowledge source for a domain.
func (s *DialogService) Source(name string) (domain.KnowledgeSource, bool) {
	src, ok := s.sources[name]
	return src, ok
}

// StartSession creates a session against the named knowledge domain.
func (s *DialogService) StartSession(ctx context.Context, domainName string) (*domain.Session, error) {
	src, ok := s.sources[domainName]
	if !ok {
		return nil, ErrUnknownDomain
	}

	sess := &domain.Session{Domain: domainName}
	if err := s.sessionStore.Create(ctx, sess); err != nil {
		return nil, err
	}

	state := &dialogState{
		policy:   policy.NewRulePolicy(src, s.logger),
		sess:     sess,
		lastUsed: time.Now(),
	}
	s.mu.Lock()
	s.active[sess.ID] = state
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("session_id", sess.ID.String()),
		zap.String("domain", domainName))
	return sess, nil
}

func (s *DialogService) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.sessionStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// EndSession drops the in-process state and deletes the session and its
// turns.
func (s *DialogService) EndSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()

	if err := s.sessionStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// History returns the session's turn log in turn order.
func (s *DialogService) History(ctx context.Context, id uuid.UUID) ([]domain.Turn, error) {
	if _, err := s.GetSession(ctx, id); err != nil {
		return nil, err
	}
	turns, err := s.turnStore.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

// Decide runs one dialog turn: the belief tracker's snapshot and the NLU's
// user acts go in, the next system action comes out. Turns of the same
// session are serialized; the returned index is the turn just decided.
func (s *DialogService) Decide(ctx context.Context, id uuid.UUID, bs *domain.BeliefState, acts []domain.UserAct) (*domain.SysAct, int, error) {
	if bs == nil {
		bs = domain.NewBeliefState()
	}

	state, err := s.sessionState(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	state.lastUsed = time.Now()

	turnIndex := state.sess.TurnCount
	act, err := state.policy.Decide(ctx, turnIndex, bs, acts)
	if err != nil {
		return nil, 0, err
	}

	state.sess.TurnCount = turnIndex + 1
	state.sess.Belief = bs
	if err := s.sessionStore.Update(ctx, state.sess); err != nil {
		return nil, 0, err
	}

	turn := &domain.Turn{
		SessionID: id,
		Index:     turnIndex,
		UserActs:  acts,
		SysAct:    act,
	}
	if err := s.turnStore.Create(ctx, turn); err != nil {
		// the decision stands; losing a log row is not worth failing the turn
		s.logger.Warn("failed to record turn",
			zap.String("session_id", id.String()),
			zap.Int("turn", turnIndex),
			zap.Error(err))
	}

	return act, turnIndex, nil
}

// sessionState returns the in-process state for a session, rebuilding it
// from the store after a restart. A rebuilt policy starts with an empty
// suggestion list; browsing resumes from the next fresh search.
func (s *DialogService) sessionState(ctx context.Context, id uuid.UUID) (*dialogState, error) {
	s.mu.Lock()
	state, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		return state, nil
	}

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	src, ok := s.sources[sess.Domain]
	if !ok {
		return nil, ErrUnknownDomain
	}

	state = &dialogState{
		policy:   policy.NewRulePolicy(src, s.logger),
		sess:     sess,
		lastUsed: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.active[id]; ok {
		return existing, nil
	}
	s.active[id] = state
	return state, nil
}

// EvictIdle drops in-process session state unused for longer than maxAge,
// returning how many states were dropped. Database rows are the expirer's
// concern.
func (s *DialogService) EvictIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, state := range s.active {
		if state.lastUsed.Before(cutoff) {
			delete(s.active, id)
			evicted++
		}
	}
	return evicted
}
