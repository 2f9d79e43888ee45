package session

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/puppy-bowl/internal/platform/cache"
	"github.com/riskibarqy/puppy-bowl/internal/platform/id"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/usecase"
)

const DefaultTTL = 30 * time.Minute

// Session is one browser's roster workspace.
type Session struct {
	ID         string
	Controller *usecase.RosterController
	CreatedAt  time.Time
}

type Gauge interface {
	SetActiveSessions(n int)
}

type RegistryConfig struct {
	TTL           time.Duration
	IDs           id.Generator
	NewController func() *usecase.RosterController
	Logger        *logging.Logger
	Gauge         Gauge
}

// Registry keeps sessions alive while they are used and destroys them after
// TTL of inactivity.
type Registry struct {
	store         *cache.Store[*Session]
	ids           id.Generator
	newController func() *usecase.RosterController
	logger        *logging.Logger
	gauge         Gauge
	ttl           time.Duration
	now           func() time.Time
}

func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.NewController == nil {
		return nil, fmt.Errorf("session registry: controller factory is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.IDs == nil {
		cfg.IDs = id.NewUUIDGenerator()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := &Registry{
		store:         cache.NewStore[*Session](cfg.TTL),
		ids:           cfg.IDs,
		newController: cfg.NewController,
		logger:        logger.Named("session"),
		gauge:         cfg.Gauge,
		ttl:           cfg.TTL,
		now:           time.Now,
	}
	r.store.OnEvict(func(key string, s *Session) {
		s.Controller.Reset()
		r.logger.Debug("session ended", "session_id", key, "age", r.now().Sub(s.CreatedAt).String())
		r.reportSize()
	})
	return r, nil
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Lookup returns a live session and extends its lifetime.
func (r *Registry) Lookup(ctx context.Context, sessionID string) (*Session, bool) {
	if !id.Valid(sessionID) {
		return nil, false
	}
	return r.store.Get(ctx, sessionID)
}

func (r *Registry) Create(ctx context.Context) (*Session, error) {
	sessionID, err := r.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s := &Session{
		ID:         sessionID,
		Controller: r.newController(),
		CreatedAt:  r.now(),
	}
	r.store.Set(ctx, sessionID, s)
	r.reportSize()
	r.logger.DebugContext(ctx, "session started", "session_id", sessionID)
	return s, nil
}

// Resolve returns the live session for sessionID or starts a new one.
func (r *Registry) Resolve(ctx context.Context, sessionID string) (*Session, bool, error) {
	if s, ok := r.Lookup(ctx, sessionID); ok {
		return s, false, nil
	}
	s, err := r.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *Registry) Len() int {
	return r.store.Len()
}

// Run sweeps idle sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	r.store.RunJanitor(ctx, interval)
}

func (r *Registry) reportSize() {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(r.store.Len())
	}
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
