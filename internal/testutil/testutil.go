// Package testutil provides common test utilities and helpers for onboarding service tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/iamanos/onboard/internal/api"
	"github.com/iamanos/onboard/internal/auth"
	"github.com/iamanos/onboard/internal/catalog"
	"github.com/iamanos/onboard/internal/chat"
	"github.com/iamanos/onboard/internal/flow"
	"github.com/iamanos/onboard/internal/models"
	"github.com/iamanos/onboard/internal/store"
)

// ScriptedChat is a chat.Service returning a fixed reply and extraction.
type ScriptedChat struct {
	Reply     string
	Extracted map[string]string
	Err       error
}

// Exchange returns the scripted result.
func (s *ScriptedChat) Exchange(ctx context.Context, req chat.ExchangeRequest) (*chat.ExchangeResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &chat.ExchangeResult{Reply: s.Reply, Extracted: s.Extracted}, nil
}

// ScriptedAssistant is a chat.Assistant returning a fixed reply.
type ScriptedAssistant struct {
	Reply string
	Err   error
}

// Assist returns the scripted reply.
func (s *ScriptedAssistant) Assist(ctx context.Context, question string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}

// FaultStore wraps a Store and fails selected operations on demand so
// tests can exercise persistence error paths.
type FaultStore struct {
	store.Store
	FailSaveSection bool
	FailComplete    bool
}

// SaveSectionData fails when FailSaveSection is set.
func (f *FaultStore) SaveSectionData(ctx context.Context, providerID, sectionID string, data models.SectionData) error {
	if f.FailSaveSection {
		return errors.New("section save unavailable")
	}
	return f.Store.SaveSectionData(ctx, providerID, sectionID, data)
}

// MarkOnboardingComplete fails when FailComplete is set.
func (f *FaultStore) MarkOnboardingComplete(ctx context.Context, providerID string) error {
	if f.FailComplete {
		return errors.New("completion unavailable")
	}
	return f.Store.MarkOnboardingComplete(ctx, providerID)
}

// Env bundles a test API server with its in-memory dependencies so tests
// can drive HTTP endpoints and inspect state behind them. The server reads
// and writes through Faults; Store is the backing in-memory state.
type Env struct {
	Handler   http.Handler
	Store     *store.InMemoryStore
	Faults    *FaultStore
	Chat      *ScriptedChat
	Assistant *ScriptedAssistant
}

// NewEnv creates a test server over an in-memory store, a two-section
// catalog and scripted chat collaborators.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	st := store.NewInMemoryStore()
	faults := &FaultStore{Store: st}
	issuer, err := auth.NewTokenIssuer("test-secret", 0)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	cat, err := catalog.New(
		models.Section{ID: "personal-info", Title: "Personal Information", Description: "Identity details.", Fields: []string{"city"}},
		models.Section{ID: "billing", Title: "Billing Details", Description: "Bank details.", Fields: []string{"taxID"}},
	)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	chatSvc := &ScriptedChat{Reply: "ok"}
	engine, err := flow.NewEngine(cat, chatSvc, faults)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	assistant := &ScriptedAssistant{Reply: "happy to help"}
	srv, err := api.NewServer(faults, issuer, engine, flow.NewSessionManager(), assistant)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return &Env{Handler: srv.Handler(), Store: st, Faults: faults, Chat: chatSvc, Assistant: assistant}
}

// Do performs one request against the test server, JSON-encoding body when
// non-nil and attaching the bearer token when non-empty.
func (e *Env) Do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, req)
	return rec
}

// DecodeResult unmarshals the response envelope's result field into out
// (when non-nil) and returns the envelope status.
func DecodeResult(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) string {
	t.Helper()
	var resp struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	if out != nil && len(resp.Result) > 0 {
		// Zero the target first: json.Unmarshal merges into existing
		// non-nil maps, which would leak state between decodes when
		// callers reuse the same value.
		if v := reflect.ValueOf(out); v.Kind() == reflect.Ptr && !v.IsNil() {
			v.Elem().Set(reflect.Zero(v.Elem().Type()))
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			t.Fatalf("failed to decode result %q: %v", resp.Result, err)
		}
	}
	return resp.Status
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}
