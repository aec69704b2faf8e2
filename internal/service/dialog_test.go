package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/catalog"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/store"
)

// mockSessionStore implements domain.SessionStore for testing.
type mockSessionStore struct {
	sessions map[uuid.UUID]*domain.Session
	updates  int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *mockSessionStore) Create(ctx context.Context, s *domain.Session) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionStore) Update(ctx context.Context, s *domain.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return store.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	m.updates++
	return nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) DeleteIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// mockTurnStore implements domain.TurnStore for testing.
type mockTurnStore struct {
	turns   []domain.Turn
	failing bool
}

func (m *mockTurnStore) Create(ctx context.Context, t *domain.Turn) error {
	if m.failing {
		return errors.New("turn store down")
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	m.turns = append(m.turns, *t)
	return nil
}

func (m *mockTurnStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Turn, error) {
	var out []domain.Turn
	for _, t := range m.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func testSources() map[string]domain.KnowledgeSource {
	src := catalog.NewMemorySource(catalog.Config{
		Name:       "courses",
		PrimaryKey: "name",
		Slots: []catalog.SlotConfig{
			{Name: "name"},
			{Name: "semester", SystemRequestable: true, PossibleValues: []string{"winter", "summer"}},
			{Name: "lecturer", SystemRequestable: true},
		},
		Records: []domain.Record{
			{"name": "nlp", "semester": "winter", "lecturer": "vu"},
			{"name": "phonetics", "semester": "winter", "lecturer": "dogil"},
		},
	})
	return map[string]domain.KnowledgeSource{"courses": src}
}

func newTestDialogService() (*DialogService, *mockSessionStore, *mockTurnStore) {
	ss := newMockSessionStore()
	ts := &mockTurnStore{}
	return NewDialogService(ss, ts, testSources(), nil), ss, ts
}

func TestDialogService_StartSession(t *testing.T) {
	s, _, _ := newTestDialogService()
	ctx := context.Background()

	sess, err := s.StartSession(ctx, "courses")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.ID == uuid.Nil {
		t.Fatal("expected session ID to be set")
	}
	if sess.Domain != "courses" {
		t.Fatalf("expected domain 'courses', got %s", sess.Domain)
	}
}

func TestDialogService_StartSession_UnknownDomain(t *testing.T) {
	s, _, _ := newTestDialogService()

	_, err := s.StartSession(context.Background(), "restaurants")
	if err != ErrUnknownDomain {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestDialogService_Domains(t *testing.T) {
	s, _, _ := newTestDialogService()

	domains := s.Domains()
	if len(domains) != 1 || domains[0] != "courses" {
		t.Fatalf("expected [courses], got %v", domains)
	}
}

func TestDialogService_Decide_AdvancesTurns(t *testing.T) {
	s, ss, ts := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")

	act, turn, err := s.Decide(ctx, sess.ID, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if turn != 0 {
		t.Fatalf("expected turn 0, got %d", turn)
	}
	if act.Type != domain.SysActWelcome {
		t.Fatalf("expected welcome on the first turn, got %s", act.Type)
	}

	bs := domain.NewBeliefState()
	act, turn, err = s.Decide(ctx, sess.ID, bs, []domain.UserAct{{Type: domain.UserActThanks}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if turn != 1 {
		t.Fatalf("expected turn 1, got %d", turn)
	}
	if act.Type != domain.SysActRequestMore {
		t.Fatalf("expected request_more, got %s", act.Type)
	}

	stored, _ := ss.GetByID(ctx, sess.ID)
	if stored.TurnCount != 2 {
		t.Fatalf("expected turn count persisted as 2, got %d", stored.TurnCount)
	}
	if len(ts.turns) != 2 {
		t.Fatalf("expected 2 logged turns, got %d", len(ts.turns))
	}
	if ts.turns[1].SysAct.Type != domain.SysActRequestMore {
		t.Fatalf("expected the system act in the log, got %s", ts.turns[1].SysAct.Type)
	}
}

func TestDialogService_Decide_UnknownSession(t *testing.T) {
	s, _, _ := newTestDialogService()

	_, _, err := s.Decide(context.Background(), uuid.New(), nil, nil)
	if err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDialogService_Decide_SurvivesTurnLogFailure(t *testing.T) {
	s, _, ts := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")
	ts.failing = true

	act, _, err := s.Decide(ctx, sess.ID, nil, nil)
	if err != nil {
		t.Fatalf("expected the decision to survive a log failure, got %v", err)
	}
	if act == nil {
		t.Fatal("expected a system act")
	}
}

func TestDialogService_Decide_RebuildsStateFromStore(t *testing.T) {
	s, ss, _ := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")
	if _, _, err := s.Decide(ctx, sess.ID, nil, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// a restart loses the in-process state but not the session row
	restarted := NewDialogService(ss, &mockTurnStore{}, testSources(), nil)

	act, turn, err := restarted.Decide(ctx, sess.ID, domain.NewBeliefState(), []domain.UserAct{{Type: domain.UserActThanks}})
	if err != nil {
		t.Fatalf("expected no error after restart, got %v", err)
	}
	if turn != 1 {
		t.Fatalf("expected the turn count to resume at 1, got %d", turn)
	}
	if act.Type != domain.SysActRequestMore {
		t.Fatalf("expected request_more, got %s", act.Type)
	}
}

func TestDialogService_History(t *testing.T) {
	s, _, _ := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")
	_, _, _ = s.Decide(ctx, sess.ID, nil, nil)

	turns, err := s.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(turns) != 1 || turns[0].Index != 0 {
		t.Fatalf("expected one turn at index 0, got %v", turns)
	}

	if _, err := s.History(ctx, uuid.New()); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDialogService_EndSession(t *testing.T) {
	s, _, _ := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")
	if err := s.EndSession(ctx, sess.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := s.EndSession(ctx, sess.ID); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestDialogService_EvictIdle(t *testing.T) {
	s, _, _ := newTestDialogService()
	ctx := context.Background()

	sess, _ := s.StartSession(ctx, "courses")

	if evicted := s.EvictIdle(time.Hour); evicted != 0 {
		t.Fatalf("expected no evictions for a fresh session, got %d", evicted)
	}
	if evicted := s.EvictIdle(0); evicted != 1 {
		t.Fatalf("expected the idle session state to be evicted, got %d", evicted)
	}

	// eviction only drops in-process state; the session itself survives
	if _, err := s.GetSession(ctx, sess.ID); err != nil {
		t.Fatalf("expected the session row to survive eviction, got %v", err)
	}
}
