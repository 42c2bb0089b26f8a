// Package api exposes the loan conversation over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/observability"
	"loan-origination/internal/models"
	"loan-origination/internal/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMaxUploadBytes = 10 << 20

// Conversation is the part of the orchestrator the API drives.
type Conversation interface {
	HandleMessage(ctx context.Context, sessionID, text string) (*orchestrator.Reply, error)
	AttachDocument(ctx context.Context, sessionID string, doc models.Document) (*orchestrator.Reply, error)
	Snapshot(ctx context.Context, sessionID string) (*models.Session, error)
	Reset(ctx context.Context, sessionID string) error
}

// LetterLoader returns a stored sanction letter.
type LetterLoader interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Deps struct {
	Conversation   Conversation
	Letters        LetterLoader
	Admin          *AdminAuth
	Observability  *observability.Observability
	Readiness      map[string]ReadinessCheck
	MaxUploadBytes int64
	Logger         logger.Logger
}

type Server struct {
	conv      Conversation
	letters   LetterLoader
	admin     *AdminAuth
	obs       *observability.Observability
	readiness map[string]ReadinessCheck
	maxUpload int64
	logger    logger.Logger
}

func NewServer(deps Deps) *Server {
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{
		conv:      deps.Conversation,
		letters:   deps.Letters,
		admin:     deps.Admin,
		obs:       deps.Observability,
		readiness: deps.Readiness,
		maxUpload: maxUpload,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/chat", s.handleChat)
	r.Post("/upload-doc", s.handleUpload)
	r.Get("/sessions/{id}", s.handleSession)
	r.Get("/download-sanction", s.handleDownload)

	r.Group(func(r chi.Router) {
		r.Use(s.admin.Require)
		r.Post("/reset", s.handleReset)
	})
	return r
}

// instrument records every request against its route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := s.logger.WithFields(map[string]interface{}{"requestId": middleware.GetReqID(r.Context())})
		r = r.WithContext(logger.IntoContext(r.Context(), reqLog))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.obs.RecordRequest(r.Context(), r.Method, route, status, elapsed)
		reqLog.Debug("request served", map[string]interface{}{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
		})
	})
}
