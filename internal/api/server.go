package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iamanos/onboard/internal/auth"
	"github.com/iamanos/onboard/internal/chat"
	"github.com/iamanos/onboard/internal/flow"
	"github.com/iamanos/onboard/internal/models"
	"github.com/iamanos/onboard/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server wires the HTTP handlers to the service's collaborators.
type Server struct {
	store     store.Store
	issuer    *auth.TokenIssuer
	engine    *flow.Engine
	sessions  *flow.SessionManager
	assistant chat.Assistant
	addr      string
}

// NewServer creates an API server. All collaborators are required except
// the assistant, which may be nil to disable the /assistant/chat endpoint.
func NewServer(st store.Store, issuer *auth.TokenIssuer, engine *flow.Engine, sessions *flow.SessionManager, assistant chat.Assistant, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	var options Opts
	for _, opt := range opts {
		opt(&options)
	}
	if options.Addr == "" {
		options.Addr = DefaultAddr
	}
	return &Server{
		store:     st,
		issuer:    issuer,
		engine:    engine,
		sessions:  sessions,
		assistant: assistant,
		addr:      options.Addr,
	}, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", s.registerHandler)
	mux.HandleFunc("/auth/login", s.loginHandler)
	mux.HandleFunc("/onboarding/session", s.requireAuth(s.sessionHandler))
	mux.HandleFunc("/onboarding/session/messages", s.requireAuth(s.messagesHandler))
	mux.HandleFunc("/onboarding/session/advance", s.requireAuth(s.advanceHandler))
	mux.HandleFunc("/onboarding/session/retreat", s.requireAuth(s.retreatHandler))
	mux.HandleFunc("/assistant/chat", s.requireAuth(s.assistantHandler))
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves HTTP until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server.Run: shutdown failed", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requireAuth verifies the bearer token and passes the authenticated
// provider ID to the wrapped handler.
func (s *Server) requireAuth(next func(w http.ResponseWriter, r *http.Request, providerID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			slog.Warn("Server.requireAuth: missing bearer token", "path", r.URL.Path)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Missing or malformed Authorization header"))
			return
		}
		providerID, err := s.issuer.Verify(token)
		if err != nil {
			slog.Warn("Server.requireAuth: token rejected", "error", err, "path", r.URL.Path)
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid or expired token"))
			return
		}
		next(w, r, providerID)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
