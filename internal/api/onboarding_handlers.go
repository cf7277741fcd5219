package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iamanos/onboard/internal/flow"
	"github.com/iamanos/onboard/internal/models"
)

// sessionHandler dispatches the session collection endpoint: POST starts
// (or restarts) a session, GET returns the current snapshot, DELETE ends it.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request, providerID string) {
	switch r.Method {
	case http.MethodPost:
		s.startSession(w, r, providerID)
	case http.MethodGet:
		s.getSession(w, r, providerID)
	case http.MethodDelete:
		s.endSession(w, r, providerID)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, providerID string) {
	provider, err := s.store.GetProvider(r.Context(), providerID)
	if err != nil {
		slog.Error("Server.startSession: provider lookup failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start onboarding session"))
		return
	}
	if provider == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Provider not found"))
		return
	}
	if provider.Status == models.ProviderStatusOnboarded {
		writeJSONResponse(w, http.StatusConflict, models.Error("Onboarding already completed"))
		return
	}

	session, err := s.engine.NewSession(providerID)
	if err != nil {
		slog.Error("Server.startSession: failed to create session", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start onboarding session"))
		return
	}
	s.sessions.Start(session)

	snap, err := s.engine.Snapshot(session)
	if err != nil {
		slog.Error("Server.startSession: snapshot failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start onboarding session"))
		return
	}
	slog.Info("Server.startSession: session started", "providerID", providerID)
	writeJSONResponse(w, http.StatusCreated, models.Success(snap))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, providerID string) {
	session := s.sessions.Get(providerID)
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active onboarding session"))
		return
	}
	snap, err := s.engine.Snapshot(session)
	if err != nil {
		slog.Error("Server.getSession: snapshot failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, providerID string) {
	s.sessions.End(providerID)
	slog.Info("Server.endSession: session ended", "providerID", providerID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session ended", nil))
}

// messagesHandler submits one user message into the active session.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request, providerID string) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messagesHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	session := s.sessions.Get(providerID)
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active onboarding session"))
		return
	}

	if err := s.engine.Submit(r.Context(), session, req.Message); err != nil {
		s.writeEngineError(w, err, "Server.messagesHandler", providerID)
		return
	}
	snap, err := s.engine.Snapshot(session)
	if err != nil {
		slog.Error("Server.messagesHandler: snapshot failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// advanceHandler moves the session to the next section, or finalizes the
// onboarding when the last section is active.
func (s *Server) advanceHandler(w http.ResponseWriter, r *http.Request, providerID string) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session := s.sessions.Get(providerID)
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active onboarding session"))
		return
	}

	if err := s.engine.Advance(r.Context(), session); err != nil {
		// A failed finalize leaves the session on the last section; the
		// client is expected to retry.
		if errors.Is(err, flow.ErrFinalizeFailed) {
			slog.Error("Server.advanceHandler: finalize failed", "error", err, "providerID", providerID)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to complete onboarding, please try again"))
			return
		}
		s.writeEngineError(w, err, "Server.advanceHandler", providerID)
		return
	}
	snap, err := s.engine.Snapshot(session)
	if err != nil {
		slog.Error("Server.advanceHandler: snapshot failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// retreatHandler moves the session back one section.
func (s *Server) retreatHandler(w http.ResponseWriter, r *http.Request, providerID string) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session := s.sessions.Get(providerID)
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No active onboarding session"))
		return
	}

	if err := s.engine.Retreat(r.Context(), session); err != nil {
		s.writeEngineError(w, err, "Server.retreatHandler", providerID)
		return
	}
	snap, err := s.engine.Snapshot(session)
	if err != nil {
		slog.Error("Server.retreatHandler: snapshot failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(snap))
}

// assistantHandler answers a free-form platform question outside any
// onboarding session. The caller must be authenticated; the provider
// identity is not part of the exchange.
func (s *Server) assistantHandler(w http.ResponseWriter, r *http.Request, providerID string) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.assistant == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Assistant is not configured"))
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.assistantHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	reply, err := s.assistant.Assist(r.Context(), req.Message)
	if err != nil {
		slog.Error("Server.assistantHandler: assistant failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Assistant is unavailable, please try again"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"reply": reply}))
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error, handler, providerID string) {
	switch {
	case errors.Is(err, flow.ErrSessionBusy):
		writeJSONResponse(w, http.StatusConflict, models.Error("Another operation is in progress"))
	case errors.Is(err, flow.ErrSessionCompleted):
		writeJSONResponse(w, http.StatusConflict, models.Error("Onboarding already completed"))
	case errors.Is(err, models.ErrEmptyMessage), errors.Is(err, models.ErrMessageTooLong):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	default:
		slog.Error(handler+": engine operation failed", "error", err, "providerID", providerID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Operation failed"))
	}
}
