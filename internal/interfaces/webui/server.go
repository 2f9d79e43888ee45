package webui

import (
	"net/http"

	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/session"
)

type RouterConfig struct {
	SecureCookies bool
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(handler *Handler, registry *session.Registry, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.Metrics)
	registerRosterRoutes(mux, handler, func(next http.HandlerFunc) http.Handler {
		return Sessions(registry, cfg.SecureCookies, logger, next)
	})

	return RequestTracing(RequestLogging(logger, SecurityHeaders(recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /static/app.css", handler.Stylesheet)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerRosterRoutes(mux *http.ServeMux, handler *Handler, withSession func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /{$}", withSession(handler.Index))
	mux.Handle("GET /state", withSession(handler.State))
	mux.Handle("POST /refresh", withSession(handler.Refresh))
	mux.Handle("POST /players", withSession(handler.CreatePlayer))
	mux.Handle("POST /players/{id}/select", withSession(handler.Select))
	mux.Handle("GET /players/{id}/remove", withSession(handler.ConfirmRemove))
	mux.Handle("POST /players/{id}/remove", withSession(handler.Remove))
	mux.Handle("POST /back", withSession(handler.Back))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "webui.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
