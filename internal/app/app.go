package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/puppy-bowl/internal/config"
	"github.com/riskibarqy/puppy-bowl/internal/external/puppybowl"
	"github.com/riskibarqy/puppy-bowl/internal/interfaces/webui"
	"github.com/riskibarqy/puppy-bowl/internal/platform/id"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/platform/metrics"
	"github.com/riskibarqy/puppy-bowl/internal/platform/resilience"
	"github.com/riskibarqy/puppy-bowl/internal/roster"
	"github.com/riskibarqy/puppy-bowl/internal/session"
	"github.com/riskibarqy/puppy-bowl/internal/usecase"
	"github.com/riskibarqy/puppy-bowl/internal/view"
)

const shutdownTimeout = 10 * time.Second

// App is the wired roster web client.
type App struct {
	Server   *http.Server
	Sessions *session.Registry
	Client   *puppybowl.Client
	Metrics  *metrics.Recorder
	logger   *logging.Logger
}

// NewClient builds the remote roster client from cfg. recorder may be nil.
func NewClient(cfg config.Config, logger *logging.Logger, recorder *metrics.Recorder) (*puppybowl.Client, error) {
	return puppybowl.NewClient(puppybowl.ClientConfig{
		BaseURL: cfg.PuppyBowlBaseURL,
		Cohort:  cfg.PuppyBowlCohort,
		Timeout: cfg.PuppyBowlTimeout,
		Logger:  logger,
		Metrics: recorder,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PuppyBowlCircuitEnabled,
			FailureThreshold: cfg.PuppyBowlCircuitFailureCount,
			OpenTimeout:      cfg.PuppyBowlCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PuppyBowlCircuitHalfOpenMaxReq,
		},
	})
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder()
	}

	client, err := NewClient(cfg, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("build puppy bowl client: %w", err)
	}

	controllerLogger := logger.Named("roster")
	var actions usecase.ActionRecorder
	if recorder != nil {
		actions = recorder
	}
	var gauge session.Gauge
	if recorder != nil {
		gauge = recorder
	}

	registry, err := session.NewRegistry(session.RegistryConfig{
		TTL: cfg.SessionTTL,
		IDs: id.NewUUIDGenerator(),
		NewController: func() *usecase.RosterController {
			return usecase.NewRosterController(client, roster.NewStore(), controllerLogger, actions)
		},
		Logger: logger,
		Gauge:  gauge,
	})
	if err != nil {
		return nil, fmt.Errorf("build session registry: %w", err)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	handler := webui.NewHandler(renderer, registry, client, logger)
	routerCfg := webui.RouterConfig{SecureCookies: cfg.SessionCookieSecure}
	if recorder != nil {
		routerCfg.Metrics = recorder.Handler()
	}
	router := webui.NewRouter(handler, registry, logger, routerCfg)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:   server,
		Sessions: registry,
		Client:   client,
		Metrics:  recorder,
		logger:   logger,
	}, nil
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.Sessions.Run(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}
