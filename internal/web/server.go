// Package web exposes the thumbnail studio over a JSON HTTP API.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/auth"
	"ai-thumbnail-pro/internal/prefs"
	"ai-thumbnail-pro/internal/studio"
)

type Options struct {
	Studio         *studio.Service
	Themes         *prefs.Themes
	Auth           *auth.Checker
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

type Server struct {
	studio         *studio.Service
	themes         *prefs.Themes
	auth           *auth.Checker
	maxUploadBytes int64
	requestTimeout time.Duration
	logger         zerolog.Logger
}

func New(opts Options) *Server {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "web").Logger()
	}

	return &Server{
		studio:         opts.Studio,
		themes:         opts.Themes,
		auth:           opts.Auth,
		maxUploadBytes: maxUpload,
		requestTimeout: timeout,
		logger:         logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/api/catalog", s.handleCatalog)
		r.Post("/api/uploads", s.handleUpload)
		r.Post("/api/prompt/draft", s.handleDraft)

		r.Get("/api/theme", s.handleGetTheme)
		r.Put("/api/theme", s.handlePutTheme)

		r.Route("/api/sessions/{key}", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Post("/enhance", s.handleEnhance)
			r.Post("/generate", s.handleGenerate)
			r.Put("/active", s.handleSelect)
			r.Post("/chat", s.handleChat)
			r.Get("/history", s.handleHistory)
			r.Get("/thumbnails/{id}", s.handleThumbnail)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http")
	})
}
