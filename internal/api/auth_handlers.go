package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iamanos/onboard/internal/auth"
	"github.com/iamanos/onboard/internal/models"
)

// registerHandler creates a provider account (step 1 of registration) and
// returns a bearer token so the client can enter onboarding directly.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.registerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.registerHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.store.GetProviderByEmail(r.Context(), email)
	if err != nil {
		slog.Error("Server.registerHandler: email lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}
	if existing != nil {
		writeJSONResponse(w, http.StatusConflict, models.Error("Email already registered"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Server.registerHandler: password hashing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}

	now := time.Now()
	provider := models.Provider{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Document:     strings.TrimSpace(req.Document),
		Status:       models.ProviderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveProvider(r.Context(), provider); err != nil {
		slog.Error("Server.registerHandler: failed to save provider", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}

	token, err := s.issuer.Issue(provider.ID)
	if err != nil {
		slog.Error("Server.registerHandler: failed to issue token", "error", err, "providerID", provider.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}

	slog.Info("Server.registerHandler: provider registered", "providerID", provider.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(models.AuthResponse{
		ID:     provider.ID,
		Email:  provider.Email,
		Name:   provider.Name,
		Token:  token,
		Status: provider.Status,
	}))
}

// loginHandler authenticates an existing provider.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.loginHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	provider, err := s.store.GetProviderByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		slog.Error("Server.loginHandler: email lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to sign in"))
		return
	}
	if provider == nil || !auth.CheckPassword(provider.PasswordHash, req.Password) {
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid email or password"))
		return
	}

	token, err := s.issuer.Issue(provider.ID)
	if err != nil {
		slog.Error("Server.loginHandler: failed to issue token", "error", err, "providerID", provider.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to sign in"))
		return
	}

	slog.Info("Server.loginHandler: provider signed in", "providerID", provider.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(models.AuthResponse{
		ID:     provider.ID,
		Email:  provider.Email,
		Name:   provider.Name,
		Token:  token,
		Status: provider.Status,
	}))
}
