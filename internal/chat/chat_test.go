package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/iamanos/onboard/internal/models"
	"github.com/openai/openai-go"
)

// mockGenAI records the messages it was called with and returns a canned reply.
type mockGenAI struct {
	reply    string
	err      error
	messages []openai.ChatCompletionMessageParamUnion
}

func (m *mockGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestParseEnvelope(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantReply string
		wantData  map[string]string
	}{
		{
			name:      "plain envelope",
			raw:       `{"message": "Got it!", "extracted_data": {"city": "Recife"}}`,
			wantReply: "Got it!",
			wantData:  map[string]string{"city": "Recife"},
		},
		{
			name:      "fenced envelope",
			raw:       "```json\n{\"message\": \"ok\", \"extracted_data\": {\"x\": \"42\"}}\n```",
			wantReply: "ok",
			wantData:  map[string]string{"x": "42"},
		},
		{
			name:      "envelope without extraction",
			raw:       `{"message": "What is your address?"}`,
			wantReply: "What is your address?",
			wantData:  nil,
		},
		{
			name:      "plain text fallback",
			raw:       "Sure, tell me your address.",
			wantReply: "Sure, tell me your address.",
			wantData:  nil,
		},
		{
			name:      "empty message falls back to raw",
			raw:       `{"extracted_data": {"x": "1"}}`,
			wantReply: `{"extracted_data": {"x": "1"}}`,
			wantData:  nil,
		},
	}

	for _, tc := range cases {
		result := parseEnvelope(tc.raw)
		if result.Reply != tc.wantReply {
			t.Errorf("%s: expected reply %q, got %q", tc.name, tc.wantReply, result.Reply)
		}
		if len(result.Extracted) != len(tc.wantData) {
			t.Errorf("%s: expected %d extracted fields, got %d", tc.name, len(tc.wantData), len(result.Extracted))
			continue
		}
		for k, v := range tc.wantData {
			if result.Extracted[k] != v {
				t.Errorf("%s: expected %s=%q, got %q", tc.name, k, v, result.Extracted[k])
			}
		}
	}
}

func TestExchangeBuildsFullContext(t *testing.T) {
	mock := &mockGenAI{reply: `{"message": "ok", "extracted_data": {"x": "42"}}`}
	svc := NewOpenAIService(mock)

	result, err := svc.Exchange(context.Background(), ExchangeRequest{
		Transcript: []Turn{
			{Role: "assistant", Content: "Welcome!"},
			{Role: "user", Content: "hi"},
		},
		UserText:      "42",
		SectionID:     "personal-info",
		SectionTitle:  "Personal Information",
		SectionFields: []string{"x"},
		SectionData:   models.SectionData{"y": "kept"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reply != "ok" {
		t.Errorf("expected reply 'ok', got %q", result.Reply)
	}
	if result.Extracted["x"] != "42" {
		t.Errorf("expected extraction x=42, got %v", result.Extracted)
	}

	// system + 2 transcript turns + current user text
	if len(mock.messages) != 4 {
		t.Fatalf("expected 4 messages sent to model, got %d", len(mock.messages))
	}
	sys := mock.messages[0].OfSystem
	if sys == nil {
		t.Fatal("expected first message to be the system prompt")
	}
	prompt := sys.Content.OfString.Value
	if !strings.Contains(prompt, "Personal Information") {
		t.Errorf("system prompt missing section title: %q", prompt)
	}
	if !strings.Contains(prompt, "Already collected") {
		t.Errorf("system prompt missing collected data context: %q", prompt)
	}
}

func TestExchangePropagatesFailure(t *testing.T) {
	mock := &mockGenAI{err: fmt.Errorf("network down")}
	svc := NewOpenAIService(mock)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{UserText: "hi", SectionID: "s1"})
	if err == nil {
		t.Fatal("expected error from failing client")
	}
}
