package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/iamanos/onboard/internal/models"
	"github.com/iamanos/onboard/internal/testutil"
)

func register(t *testing.T, env *testutil.Env) models.AuthResponse {
	t.Helper()
	rec := env.Do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Name:     "Ana Souza",
		Email:    "ana@example.com",
		Password: "supersecret",
		Document: "123.456.789-00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}
	var authResp models.AuthResponse
	testutil.DecodeResult(t, rec, &authResp)
	if authResp.Token == "" {
		t.Fatal("expected a bearer token in register response")
	}
	return authResp
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{Email: "x@example.com"})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rec.Code, "register with missing fields")

	register(t, env)
	rec = env.Do(t, http.MethodPost, "/auth/register", "", models.RegisterRequest{
		Name: "Other", Email: "ANA@example.com", Password: "supersecret", Document: "999",
	})
	testutil.AssertHTTPStatus(t, http.StatusConflict, rec.Code, "register with duplicate email")
}

func TestLogin(t *testing.T) {
	env := testutil.NewEnv(t)
	register(t, env)

	rec := env.Do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "supersecret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var authResp models.AuthResponse
	testutil.DecodeResult(t, rec, &authResp)
	if authResp.Token == "" || authResp.Status != models.ProviderStatusPending {
		t.Errorf("unexpected login response: %+v", authResp)
	}

	rec = env.Do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "login with wrong password")
	rec = env.Do(t, http.MethodPost, "/auth/login", "", models.LoginRequest{Email: "nobody@example.com", Password: "supersecret"})
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "login with unknown email")
}

func TestSessionRequiresAuth(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Do(t, http.MethodPost, "/onboarding/session", "", nil)
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "session start without token")
	rec = env.Do(t, http.MethodPost, "/onboarding/session", "not-a-token", nil)
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "session start with garbage token")
}

func TestOnboardingFlowOverHTTP(t *testing.T) {
	env := testutil.NewEnv(t)
	account := register(t, env)
	token := account.Token

	// No session yet.
	rec := env.Do(t, http.MethodGet, "/onboarding/session", token, nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rec.Code, "snapshot before session start")
	rec = env.Do(t, http.MethodPost, "/onboarding/session/messages", token, models.ChatRequest{Message: "hi"})
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rec.Code, "submit before session start")

	// Start.
	rec = env.Do(t, http.MethodPost, "/onboarding/session", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("session start returned %d: %s", rec.Code, rec.Body.String())
	}
	var snap models.SessionSnapshot
	testutil.DecodeResult(t, rec, &snap)
	if snap.SectionID != "personal-info" || len(snap.Messages) != 1 {
		t.Fatalf("unexpected initial snapshot: section=%s messages=%d", snap.SectionID, len(snap.Messages))
	}

	// Chat within section one.
	env.Chat.Reply = "Noted. Is that correct?"
	env.Chat.Extracted = map[string]string{"city": "Lisbon"}
	rec = env.Do(t, http.MethodPost, "/onboarding/session/messages", token, models.ChatRequest{Message: "I live in Lisbon"})
	if rec.Code != http.StatusOK {
		t.Fatalf("message submit returned %d: %s", rec.Code, rec.Body.String())
	}
	testutil.DecodeResult(t, rec, &snap)
	if len(snap.Messages) != 3 || snap.SectionData["city"] != "Lisbon" {
		t.Fatalf("unexpected snapshot after submit: messages=%d data=%v", len(snap.Messages), snap.SectionData)
	}
	if len(snap.QuickActions) == 0 {
		t.Error("expected quick actions for confirmation reply")
	}

	// Advance to billing.
	rec = env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance returned %d: %s", rec.Code, rec.Body.String())
	}
	testutil.DecodeResult(t, rec, &snap)
	if snap.SectionID != "billing" || len(snap.Messages) != 1 || len(snap.SectionData) != 0 {
		t.Fatalf("unexpected snapshot after advance: %+v", snap)
	}
	saved, _ := env.Store.GetSectionData(context.Background(), account.ID, "personal-info")
	if saved["city"] != "Lisbon" {
		t.Fatalf("expected section saved on advance, got %v", saved)
	}

	// Retreat back, then advance again.
	rec = env.Do(t, http.MethodPost, "/onboarding/session/retreat", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retreat returned %d: %s", rec.Code, rec.Body.String())
	}
	testutil.DecodeResult(t, rec, &snap)
	if snap.SectionID != "personal-info" {
		t.Fatalf("expected retreat to section one, got %s", snap.SectionID)
	}
	rec = env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance returned %d", rec.Code)
	}

	// Finalize from the last section.
	env.Chat.Extracted = map[string]string{"taxID": "42"}
	rec = env.Do(t, http.MethodPost, "/onboarding/session/messages", token, models.ChatRequest{Message: "tax id 42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("message submit returned %d", rec.Code)
	}
	rec = env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalizing advance returned %d: %s", rec.Code, rec.Body.String())
	}
	testutil.DecodeResult(t, rec, &snap)
	if !snap.Completed {
		t.Fatal("expected completed snapshot after final advance")
	}
	p, _ := env.Store.GetProvider(context.Background(), account.ID)
	if p == nil || p.Status != models.ProviderStatusOnboarded {
		t.Fatal("expected provider marked onboarded")
	}

	// Terminal session rejects further operations, and a restart conflicts.
	rec = env.Do(t, http.MethodPost, "/onboarding/session/messages", token, models.ChatRequest{Message: "more"})
	testutil.AssertHTTPStatus(t, http.StatusConflict, rec.Code, "submit after completion")
	rec = env.Do(t, http.MethodPost, "/onboarding/session", token, nil)
	testutil.AssertHTTPStatus(t, http.StatusConflict, rec.Code, "restart after completion")
}

func TestMessageValidationOverHTTP(t *testing.T) {
	env := testutil.NewEnv(t)
	token := register(t, env).Token
	if rec := env.Do(t, http.MethodPost, "/onboarding/session", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("session start returned %d", rec.Code)
	}

	rec := env.Do(t, http.MethodPost, "/onboarding/session/messages", token, models.ChatRequest{Message: "   "})
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rec.Code, "blank message submit")
}

func TestSessionEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	token := register(t, env).Token
	if rec := env.Do(t, http.MethodPost, "/onboarding/session", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("session start returned %d", rec.Code)
	}

	rec := env.Do(t, http.MethodDelete, "/onboarding/session", token, nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rec.Code, "session end")
	rec = env.Do(t, http.MethodGet, "/onboarding/session", token, nil)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rec.Code, "snapshot after session end")
}

func TestAssistantChat(t *testing.T) {
	env := testutil.NewEnv(t)
	token := register(t, env).Token

	rec := env.Do(t, http.MethodPost, "/assistant/chat", token, models.ChatRequest{Message: "How do payouts work?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assistant chat returned %d: %s", rec.Code, rec.Body.String())
	}
	var result map[string]string
	testutil.DecodeResult(t, rec, &result)
	if result["reply"] != "happy to help" {
		t.Errorf("unexpected assistant reply: %v", result)
	}

	env.Assistant.Err = errors.New("upstream down")
	rec = env.Do(t, http.MethodPost, "/assistant/chat", token, models.ChatRequest{Message: "hello?"})
	testutil.AssertHTTPStatus(t, http.StatusBadGateway, rec.Code, "assistant chat upstream failure")
}

func TestAssistantChatRequiresAuth(t *testing.T) {
	env := testutil.NewEnv(t)

	rec := env.Do(t, http.MethodPost, "/assistant/chat", "", models.ChatRequest{Message: "How do payouts work?"})
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "assistant chat without token")
	rec = env.Do(t, http.MethodPost, "/assistant/chat", "not-a-token", models.ChatRequest{Message: "How do payouts work?"})
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rec.Code, "assistant chat with garbage token")
}

func TestAdvanceFinalizeFailureMapping(t *testing.T) {
	env := testutil.NewEnv(t)
	account := register(t, env)
	token := account.Token
	if rec := env.Do(t, http.MethodPost, "/onboarding/session", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("session start returned %d", rec.Code)
	}

	// Move to the last section, then break completion.
	if rec := env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("advance returned %d", rec.Code)
	}
	env.Faults.FailComplete = true
	rec := env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil)
	testutil.AssertHTTPStatus(t, http.StatusBadGateway, rec.Code, "finalize with completion failing")

	// The session stayed on the final section; retry succeeds once the
	// store recovers.
	env.Faults.FailComplete = false
	rec = env.Do(t, http.MethodPost, "/onboarding/session/advance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retried finalize returned %d: %s", rec.Code, rec.Body.String())
	}
	var snap models.SessionSnapshot
	testutil.DecodeResult(t, rec, &snap)
	if !snap.Completed {
		t.Error("expected completed snapshot after retried finalize")
	}
	p, _ := env.Store.GetProvider(context.Background(), account.ID)
	if p == nil || p.Status != models.ProviderStatusOnboarded {
		t.Error("expected provider onboarded after retried finalize")
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)
	rec := env.Do(t, http.MethodGet, "/health", "", nil)
	testutil.AssertHTTPStatus(t, http.StatusOK, rec.Code, "health check")
}
