// internal/service/evaluation_service.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/grid"
	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/model"
	"github.com/unclebandit/campaign-evaluation/internal/repository"
)

// EvaluationService keeps one evaluation grid per open session.
type EvaluationService struct {
	ItemRepo           repository.CampaignItemRepositoryInterface
	Picklists          grid.PicklistProvider
	Publisher          grid.RecalcPublisher
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
	SessionTTL         time.Duration
	DuplicateABMessage string
	UnpackVirtualRows  bool

	// Now defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	ctrl *grid.Controller

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *EvaluationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *EvaluationService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Open loads the grid of recordID and registers it under a new session id.
func (s *EvaluationService) Open(ctx context.Context, recordID string) (string, grid.View, error) {
	id := uuid.NewString()
	logger := s.logger().With(zap.String("session_id", id))

	ctrl := grid.NewController(grid.Config{
		RecordID:           recordID,
		Fetcher:            s.ItemRepo,
		Persister:          s.ItemRepo,
		Picklists:          s.Picklists,
		Publisher:          s.Publisher,
		Notifier:           LogNotifier(logger),
		Logger:             logger,
		Metrics:            s.Metrics,
		DuplicateABMessage: s.DuplicateABMessage,
		Options:            grid.Options{UnpackVirtualRows: s.UnpackVirtualRows},
	})
	if err := ctrl.Load(ctx); err != nil {
		return "", grid.View{}, err
	}

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	s.sessions[id] = &session{ctrl: ctrl, lastUsed: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.Metrics.SetSessionsActive(n)
	logger.Info("evaluation session opened", zap.String("record_id", recordID))
	return id, ctrl.View(), nil
}

// Session returns the grid of session id. Expired sessions are dropped.
func (s *EvaluationService) Session(id string) (*grid.Controller, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.NewSessionNotFound(id)
	}

	now := s.now()
	if s.expired(sess, now) && !sess.ctrl.Busy() {
		s.remove(id)
		return nil, appErrors.NewSessionNotFound(id)
	}
	sess.touch(now)
	return sess.ctrl, nil
}

// Close discards session id and its drafts.
func (s *EvaluationService) Close(id string) error {
	if !s.remove(id) {
		return appErrors.NewSessionNotFound(id)
	}
	s.logger().Info("evaluation session closed", zap.String("session_id", id))
	return nil
}

// Count returns the number of open sessions.
func (s *EvaluationService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops idle sessions and returns how many were removed. Sessions with
// a save in flight are kept.
func (s *EvaluationService) Sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) && !sess.ctrl.Busy() {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.Metrics.SetSessionsActive(n)
		s.logger().Info("expired evaluation sessions removed", zap.Int("count", removed))
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *EvaluationService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *EvaluationService) expired(sess *session, now time.Time) bool {
	return s.SessionTTL > 0 && now.Sub(sess.idleSince()) > s.SessionTTL
}

func (s *EvaluationService) remove(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if ok {
		s.Metrics.SetSessionsActive(n)
	}
	return ok
}

// LogNotifier writes every toast to logger.
func LogNotifier(logger *zap.Logger) grid.Notifier {
	return grid.NotifierFunc(func(t model.Toast) {
		fields := []zap.Field{zap.String("title", t.Title), zap.String("message", t.Message)}
		if t.Variant == model.ToastError {
			logger.Warn("toast", fields...)
			return
		}
		logger.Info("toast", fields...)
	})
}
