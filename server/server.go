// Package server exposes the guarded travel assistant over HTTP: a JSON chat
// endpoint, an SSE streaming variant, and a health probe. Rate limiting and
// CORS wrap the chat routes; the health probe stays outside the stack.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

// Responder runs one user message through the conversation pipeline.
type Responder interface {
	Respond(ctx context.Context, threadID string, text string) (string, error)
	RespondStream(ctx context.Context, threadID string, text string) *schema.StreamReader[contractx.StreamEvent]
}

type Server struct {
	cfg     Config
	pipe    Responder
	handler http.Handler
}

func New(cfg Config, pipe Responder) (*Server, error) {
	if pipe == nil {
		return nil, errors.New("responder is required")
	}

	s := &Server{cfg: cfg, pipe: pipe}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/stream", s.handleChatStream)

	limiter := newRateLimiter(cfg.RatePerMinute/60, cfg.RateBurst)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(limiter, cfg.TrustProxy)(handler)
	handler = corsMiddleware(cfg.AllowedOrigins)(handler)

	top := http.NewServeMux()
	top.HandleFunc("GET /health", handleHealth)
	top.Handle("/", handler)
	s.handler = top

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is canceled, then drains in-flight requests within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
