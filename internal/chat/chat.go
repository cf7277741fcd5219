// Package chat implements the remote chat-exchange collaborator for the
// onboarding conversation.
//
// An exchange carries the full prior transcript, the new user utterance, the
// active section, and the data collected so far; the reply carries assistant
// text plus an optional mapping of extracted field values.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iamanos/onboard/internal/genai"
	"github.com/iamanos/onboard/internal/models"
	"github.com/openai/openai-go"
)

// Turn is one transcript entry sent to the collaborator (role + content only).
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExchangeRequest is the input for one conversation turn.
type ExchangeRequest struct {
	Transcript         []Turn
	UserText           string
	SectionID          string
	SectionTitle       string
	SectionDescription string
	SectionFields      []string
	SectionData        models.SectionData
}

// ExchangeResult is the collaborator's reply: assistant text plus any field
// values it extracted from the user's utterance.
type ExchangeResult struct {
	Reply     string
	Extracted map[string]string
}

// Service is the chat-exchange collaborator interface. Failures surface as
// opaque errors; the conversation engine owns recovery.
type Service interface {
	Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error)
}

// Assistant answers free-form platform questions outside any onboarding
// session. Stateless: each question stands alone.
type Assistant interface {
	Assist(ctx context.Context, question string) (string, error)
}

// OpenAIService implements Service on top of the GenAI client. It asks the
// model for a JSON envelope so replies and extractions travel together in a
// single round trip.
type OpenAIService struct {
	client genai.ClientInterface
}

// NewOpenAIService creates a chat service backed by the given GenAI client.
func NewOpenAIService(client genai.ClientInterface) *OpenAIService {
	slog.Debug("Creating OpenAI chat service")
	return &OpenAIService{client: client}
}

// Exchange runs one conversation turn against the model.
func (s *OpenAIService) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	slog.Debug("ChatService Exchange invoked", "sectionID", req.SectionID, "transcriptLength", len(req.Transcript), "userTextLength", len(req.UserText))

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(s.buildSystemPrompt(req)),
	}
	for _, turn := range req.Transcript {
		switch turn.Role {
		case string(models.RoleUser):
			messages = append(messages, openai.UserMessage(turn.Content))
		case string(models.RoleAssistant):
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.UserText))

	raw, err := s.client.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Error("ChatService Exchange generation failed", "error", err, "sectionID", req.SectionID)
		return nil, fmt.Errorf("chat exchange failed: %w", err)
	}

	result := parseEnvelope(raw)
	slog.Debug("ChatService Exchange succeeded", "sectionID", req.SectionID, "replyLength", len(result.Reply), "extractedFields", len(result.Extracted))
	return result, nil
}

// buildSystemPrompt describes the active section, its fields, and the data
// collected so far, and instructs the model to answer in the JSON envelope.
func (s *OpenAIService) buildSystemPrompt(req ExchangeRequest) string {
	var b strings.Builder
	b.WriteString("You are a friendly onboarding assistant helping a service provider complete their professional profile.\n\n")
	fmt.Fprintf(&b, "Current section: %s (%s)\n", req.SectionTitle, req.SectionID)
	if req.SectionDescription != "" {
		fmt.Fprintf(&b, "Section goal: %s\n", req.SectionDescription)
	}
	if len(req.SectionFields) > 0 {
		fmt.Fprintf(&b, "Fields to collect: %s\n", strings.Join(req.SectionFields, ", "))
	}
	if len(req.SectionData) > 0 {
		collected, err := json.Marshal(req.SectionData)
		if err == nil {
			fmt.Fprintf(&b, "Already collected: %s\n", collected)
		}
	}
	b.WriteString("\nGuide the user through the missing fields one or two at a time. ")
	b.WriteString("When the user provides a value for a field, extract it. ")
	b.WriteString("When every field is collected, summarize the values and ask the user to confirm.\n\n")
	b.WriteString("Respond ONLY with a JSON object of the form ")
	b.WriteString(`{"message": "<your reply to the user>", "extracted_data": {"<field>": "<value>"}}. `)
	b.WriteString("Omit extracted_data when nothing was extracted.")
	return b.String()
}

const assistantSystemPrompt = "You are Iamanos, the virtual assistant of a services marketplace. " +
	"Answer questions about registration, onboarding, payouts and how the platform works. " +
	"Be concise and friendly. If a question is outside the platform, say so politely."

// Assist answers one standalone platform question.
func (s *OpenAIService) Assist(ctx context.Context, question string) (string, error) {
	raw, err := s.client.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(assistantSystemPrompt),
		openai.UserMessage(question),
	})
	if err != nil {
		slog.Error("ChatService Assist generation failed", "error", err)
		return "", fmt.Errorf("assistant chat failed: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// envelope is the JSON shape the model is instructed to return.
type envelope struct {
	Message       string            `json:"message"`
	ExtractedData map[string]string `json:"extracted_data"`
}

// parseEnvelope decodes the model's reply leniently: a valid envelope yields
// reply + extractions, anything else is treated as plain reply text.
func parseEnvelope(raw string) *ExchangeResult {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err == nil && env.Message != "" {
		return &ExchangeResult{Reply: env.Message, Extracted: env.ExtractedData}
	}

	// Model ignored the envelope instruction; use the raw text as the reply.
	return &ExchangeResult{Reply: strings.TrimSpace(raw)}
}
