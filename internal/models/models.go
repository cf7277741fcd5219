// Package models defines the core data structures for the onboarding service.
//
// It includes the section catalog entries, conversation messages, and the
// per-section data accumulator shared across modules.
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// RoleUser marks a message typed (or quick-action submitted) by the provider.
	RoleUser MessageRole = "user"
	// RoleAssistant marks a message produced by the chat collaborator or seeded locally.
	RoleAssistant MessageRole = "assistant"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for a user chat message
	MaxMessageLength = 4096
	// MinPasswordLength defines the minimum allowed password length at registration
	MinPasswordLength = 8
)

// Error variables for better error handling and testability
var (
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrMissingEmail     = errors.New("email is required")
	ErrMissingName      = errors.New("name is required")
	ErrMissingPassword  = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrMissingDocument  = errors.New("document is required")
)

// Section is one ordered stage of the onboarding conversation with a fixed
// set of fields to collect. Sections are statically defined and immutable.
type Section struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

// Message is a single turn in the onboarding conversation. Messages are
// immutable once appended to a session's log.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	SectionID string      `json:"section_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a message with a fresh identifier and timestamp.
func NewMessage(role MessageRole, content, sectionID string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		SectionID: sectionID,
		Timestamp: time.Now(),
	}
}

// SectionData accumulates extracted field values for the section currently
// being collected. Values are free-form text; the engine stores whatever the
// chat collaborator extracted without type-checking.
type SectionData map[string]string

// Merge applies extracted values with last-write-wins semantics per field.
// Fields not present in extracted are left untouched.
func (d SectionData) Merge(extracted map[string]string) {
	for field, value := range extracted {
		d[field] = value
	}
}

// Clone returns an independent copy of the accumulator.
func (d SectionData) Clone() SectionData {
	out := make(SectionData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// QuickAction is a one-click, pre-filled follow-up utterance inferred from
// the assistant's latest reply. Ephemeral: recomputed on every snapshot,
// never persisted.
type QuickAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// SessionSnapshot is the read model of an onboarding session returned to API
// clients: current section, transcript, accumulated data, and quick actions.
type SessionSnapshot struct {
	ProviderID         string        `json:"provider_id"`
	SectionID          string        `json:"section_id"`
	SectionTitle       string        `json:"section_title"`
	SectionDescription string        `json:"section_description"`
	SectionIndex       int           `json:"section_index"`
	SectionCount       int           `json:"section_count"`
	Completed          bool          `json:"completed"`
	Busy               bool          `json:"busy"`
	Messages           []Message     `json:"messages"`
	SectionData        SectionData   `json:"section_data"`
	QuickActions       []QuickAction `json:"quick_actions"`
}
