// Package flow implements the progressive onboarding conversation engine:
// the section/step state machine, the per-section data accumulator, the
// message log, and the transition protocol around the external chat and
// persistence collaborators.
package flow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iamanos/onboard/internal/models"
)

// Error variables for session guard failures
var (
	// ErrSessionBusy is returned when an operation is attempted while
	// another operation on the same session is still in flight.
	ErrSessionBusy = errors.New("session busy with another operation")
	// ErrSessionCompleted is returned for any operation on a finalized session.
	ErrSessionCompleted = errors.New("onboarding session already completed")
	// ErrFinalizeFailed wraps persistence failures during finalization. The
	// session stays on the final section so the caller can retry.
	ErrFinalizeFailed = errors.New("failed to finalize onboarding")
)

// Session is the explicitly owned state of one provider's onboarding
// conversation: message log, section-data accumulator, and catalog cursor.
// It is created when the provider enters the onboarding view and torn down
// on completion or abandonment; nothing about it is ambient or global.
//
// Submit, Advance, Retreat and Finalize are mutually exclusive on a session:
// a single busy guard covers all of them, so a late-arriving chat reply can
// never land in a section that was reset underneath it.
type Session struct {
	mu         sync.Mutex
	providerID string
	cursor     int
	messages   []models.Message
	data       models.SectionData
	completed  bool
	busy       bool
}

// ProviderID returns the provider this session belongs to.
func (s *Session) ProviderID() string {
	return s.providerID
}

// begin claims the session's operation guard. Exactly one Submit, Advance,
// Retreat or Finalize may hold it at a time.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return ErrSessionCompleted
	}
	if s.busy {
		return ErrSessionBusy
	}
	s.busy = true
	return nil
}

// end releases the operation guard. Guaranteed to run on both success and
// failure paths of every operation.
func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// cursorPos returns the current catalog cursor. Stable for the duration of
// an operation because cursor changes only happen under the guard.
func (s *Session) cursorPos() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// appendMessage appends to the message log. Messages are immutable once
// appended; the log is never reordered.
func (s *Session) appendMessage(m models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// transcript returns a copy of the current message log.
func (s *Session) transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// dataSnapshot returns a copy of the accumulator.
func (s *Session) dataSnapshot() models.SectionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// mergeData applies extracted field values last-write-wins.
func (s *Session) mergeData(extracted map[string]string) {
	s.mu.Lock()
	s.data.Merge(extracted)
	s.mu.Unlock()
}

// resetTo moves the cursor and replaces the accumulator and message log
// wholesale with a fresh welcome message for the new section.
func (s *Session) resetTo(cursor int, welcome models.Message) {
	s.mu.Lock()
	s.cursor = cursor
	s.data = models.SectionData{}
	s.messages = []models.Message{welcome}
	s.mu.Unlock()
}

// complete marks the session terminal. No transition leaves this state.
func (s *Session) complete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
}

// Fixed conversation texts. The transition contract requires exactly one
// deterministic seeded assistant message per section entry.
const (
	// ApologyMessage is appended verbatim when a chat exchange fails.
	ApologyMessage = "Sorry, something went wrong. Please try again."
)

func welcomeText(sec models.Section) string {
	return fmt.Sprintf("Hi! Welcome to step 2 of your registration. I'll help you complete your professional profile.\n\nLet's start with: **%s**\n\n%s\n\nHow can I help you?", sec.Title, sec.Description)
}

func advanceText(sec models.Section) string {
	return fmt.Sprintf("Great! Let's move on to the next step: **%s**\n\n%s\n\nHow can I help you?", sec.Title, sec.Description)
}

func retreatText(sec models.Section) string {
	return fmt.Sprintf("No problem, let's go back over: **%s**\n\n%s\n\nHow can I help you?", sec.Title, sec.Description)
}
