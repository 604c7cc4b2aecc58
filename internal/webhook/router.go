package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// HealthCheck проверяет зависимости сервиса, например соединение с БД.
type HealthCheck func(ctx context.Context) error

// NewRouter собирает HTTP-часть сервиса: вебхуки шлюза и /healthz.
// rateLimit задаёт число запросов в минуту с одного IP на вебхук, 0 отключает лимит.
func NewRouter(h *Handler, health HealthCheck, rateLimit int, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/webhooks/xendit", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.LimitByIP(rateLimit, time.Minute))
		}
		r.Post("/invoice", h.XenditInvoice)
	})

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
