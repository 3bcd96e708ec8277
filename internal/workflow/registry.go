package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"docflow/internal/domain"
)

// SessionFactory builds a new Session for an owner.
type SessionFactory func(ownerID string) *Session

// Registry keeps one Session per authenticated owner.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  SessionFactory
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(factory SessionFactory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
	}
}

// Get returns the owner's session, creating it on first use.
func (r *Registry) Get(ownerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[ownerID]; ok {
		return s
	}
	s := r.factory(ownerID)
	r.sessions[ownerID] = s
	r.logger.Debug("session created", zap.String("owner_id", ownerID))
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close discards the owner's session and cancels its in-flight work. It is a
// no-op when the owner has none.
func (r *Registry) Close(ownerID string) {
	r.mu.Lock()
	s, ok := r.sessions[ownerID]
	delete(r.sessions, ownerID)
	r.mu.Unlock()

	if ok {
		_ = s.Close()
		r.logger.Info("session closed", zap.String("owner_id", ownerID))
	}
}

// Sweep closes sessions idle for longer than maxAge that have no save in
// flight. It returns the number of sessions closed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var stale []*Session
	for owner, s := range r.sessions {
		st := s.State()
		if st.Save == domain.SaveSaving || !s.LastActive().Before(cutoff) {
			continue
		}
		stale = append(stale, s)
		delete(r.sessions, owner)
	}
	r.mu.Unlock()

	for _, s := range stale {
		_ = s.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("idle sessions swept", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// StartJanitor sweeps idle sessions every interval until ctx is canceled.
func (r *Registry) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	r.logger.Info("session janitor started",
		zap.Duration("interval", interval), zap.Duration("max_age", maxAge))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			r.Sweep(maxAge)
		}
	}
}

// CloseAll closes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		_ = s.Close()
	}
}
