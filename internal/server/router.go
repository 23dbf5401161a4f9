package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"symptom-triage/internal/appointment"
	"symptom-triage/internal/consultation"
	"symptom-triage/internal/ratelimit"
)

// Deps is everything the router mounts.
type Deps struct {
	Consultation consultation.Service
	Appointments appointment.Service
	// Limiter throttles POST /api/chat. Nil disables limiting.
	Limiter      *ratelimit.Limiter
	MaxBodyBytes int64
	// Health is called by /healthz. Nil always reports ok.
	Health func(ctx context.Context) error
	Log    *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if d.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(d.MaxBodyBytes))
	}

	r.Get("/healthz", healthz(d.Health))

	chat := consultation.NewHandler(d.Consultation, d.Log)
	if d.Limiter != nil {
		chat.WithLimiter(d.Limiter)
	}
	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, chat)

		if d.Appointments != nil {
			appointment.RegisterRoutes(r, appointment.NewHandler(d.Appointments, d.Log))
		}
	})
	return r
}

// cors allows any origin. The API has no cookies or other ambient
// credentials for a foreign page to ride on, and the browser frontend is
// served from a different origin than the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-ID")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
