package service

import (
	"context"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/domain"
	"go.uber.org/zap"
)

const defaultExpirerInterval = 10 * time.Minute

// ExpirerService removes dialog sessions that have gone quiet: the in-process
// policy state is evicted and the session rows (with their turn logs) are
// deleted once the TTL passes.
type ExpirerService struct {
	dialog       *DialogService
	sessionStore domain.SessionStore
	logger       *zap.Logger

	ttl      time.Duration
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(dialog *DialogService, ss domain.SessionStore, ttl time.Duration, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		dialog:       dialog,
		sessionStore: ss,
		logger:       logger,
		ttl:          ttl,
		interval:     defaultExpirerInterval,
		stopCh:       make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirerService) run(ctx context.Context) {
	if evicted := s.dialog.EvictIdle(s.ttl); evicted > 0 {
		s.logger.Info("evicted idle session state", zap.Int("count", evicted))
	}

	deleted, err := s.sessionStore.DeleteIdle(ctx, s.ttl)
	if err != nil {
		s.logger.Error("failed to delete idle sessions", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted idle sessions", zap.Int64("count", deleted))
	}
}
