package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iamanos/onboard/internal/catalog"
	"github.com/iamanos/onboard/internal/chat"
	"github.com/iamanos/onboard/internal/models"
	"github.com/iamanos/onboard/internal/store"
)

// Engine drives onboarding sessions through the section catalog. It owns
// no session state itself; sessions are passed in explicitly so the engine
// stays a stateless orchestrator over its collaborators.
type Engine struct {
	catalog *catalog.Catalog
	chat    chat.Service
	store   store.Store
}

// NewEngine creates an engine over the given catalog, chat service and store.
func NewEngine(cat *catalog.Catalog, chatSvc chat.Service, st store.Store) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if chatSvc == nil {
		return nil, fmt.Errorf("chat service is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Engine{catalog: cat, chat: chatSvc, store: st}, nil
}

// NewSession creates a session for the provider positioned at the first
// section, seeded with the initial welcome message.
func (e *Engine) NewSession(providerID string) (*Session, error) {
	first, err := e.catalog.At(0)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve first section: %w", err)
	}
	s := &Session{
		providerID: providerID,
		data:       models.SectionData{},
		messages: []models.Message{
			models.NewMessage(models.RoleAssistant, welcomeText(first), first.ID),
		},
	}
	slog.Debug("Engine.NewSession: session created", "providerID", providerID, "sectionID", first.ID)
	return s, nil
}

// Submit sends one user message through the chat collaborator and appends
// the assistant reply. On a chat failure the session recovers locally with
// an apology message and the accumulator is left untouched.
func (e *Engine) Submit(ctx context.Context, s *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return models.ErrEmptyMessage
	}
	if len(text) > models.MaxMessageLength {
		return models.ErrMessageTooLong
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	section, err := e.catalog.At(s.cursorPos())
	if err != nil {
		return fmt.Errorf("failed to resolve current section: %w", err)
	}

	prior := s.transcript()
	s.appendMessage(models.NewMessage(models.RoleUser, text, section.ID))

	turns := make([]chat.Turn, 0, len(prior))
	for _, m := range prior {
		turns = append(turns, chat.Turn{Role: string(m.Role), Content: m.Content})
	}
	result, err := e.chat.Exchange(ctx, chat.ExchangeRequest{
		Transcript:         turns,
		UserText:           text,
		SectionID:          section.ID,
		SectionTitle:       section.Title,
		SectionDescription: section.Description,
		SectionFields:      section.Fields,
		SectionData:        s.dataSnapshot(),
	})
	if err != nil {
		slog.Error("Engine.Submit: chat exchange failed", "error", err, "providerID", s.providerID, "sectionID", section.ID)
		s.appendMessage(models.NewMessage(models.RoleAssistant, ApologyMessage, section.ID))
		return nil
	}

	s.appendMessage(models.NewMessage(models.RoleAssistant, result.Reply, section.ID))
	if len(result.Extracted) > 0 {
		s.mergeData(result.Extracted)
		slog.Debug("Engine.Submit: merged extracted fields", "providerID", s.providerID, "sectionID", section.ID, "fieldCount", len(result.Extracted))
	}
	return nil
}

// Advance persists the current section's data and moves to the next
// section, or finalizes the whole onboarding when already on the last one.
// The interim persist is best-effort: a store failure is logged and the
// transition proceeds, because the accumulated data survives in the session
// and gets another write on the next boundary.
func (e *Engine) Advance(ctx context.Context, s *Session) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	cursor := s.cursorPos()
	if e.catalog.IsLast(cursor) {
		return e.finalize(ctx, s)
	}

	section, err := e.catalog.At(cursor)
	if err != nil {
		return fmt.Errorf("failed to resolve current section: %w", err)
	}
	if err := e.store.SaveSectionData(ctx, s.providerID, section.ID, s.dataSnapshot()); err != nil {
		slog.Error("Engine.Advance: best-effort section save failed", "error", err, "providerID", s.providerID, "sectionID", section.ID)
	}

	next, err := e.catalog.At(cursor + 1)
	if err != nil {
		return fmt.Errorf("failed to resolve next section: %w", err)
	}
	s.resetTo(cursor+1, models.NewMessage(models.RoleAssistant, advanceText(next), next.ID))
	slog.Info("Engine.Advance: advanced to section", "providerID", s.providerID, "sectionID", next.ID)
	return nil
}

// Retreat moves back one section, discarding the current section's
// unsaved accumulator. At the first section it is a no-op.
func (e *Engine) Retreat(ctx context.Context, s *Session) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	cursor := s.cursorPos()
	if cursor == 0 {
		return nil
	}
	prev, err := e.catalog.At(cursor - 1)
	if err != nil {
		return fmt.Errorf("failed to resolve previous section: %w", err)
	}
	s.resetTo(cursor-1, models.NewMessage(models.RoleAssistant, retreatText(prev), prev.ID))
	slog.Info("Engine.Retreat: retreated to section", "providerID", s.providerID, "sectionID", prev.ID)
	return nil
}

// finalize persists the last section and marks the provider onboarded.
// Unlike the interim saves this is blocking: either write failing leaves
// the session on the final section so the caller can retry Advance.
func (e *Engine) finalize(ctx context.Context, s *Session) error {
	last, err := e.catalog.At(e.catalog.Len() - 1)
	if err != nil {
		return fmt.Errorf("failed to resolve final section: %w", err)
	}
	if err := e.store.SaveSectionData(ctx, s.providerID, last.ID, s.dataSnapshot()); err != nil {
		return fmt.Errorf("%w: persist final section data: %w", ErrFinalizeFailed, err)
	}
	if err := e.store.MarkOnboardingComplete(ctx, s.providerID); err != nil {
		return fmt.Errorf("%w: mark onboarding complete: %w", ErrFinalizeFailed, err)
	}
	s.complete()
	slog.Info("Engine.finalize: onboarding completed", "providerID", s.providerID)
	return nil
}

// Snapshot builds a client-facing view of the session, including quick
// actions inferred from the latest assistant reply.
func (e *Engine) Snapshot(s *Session) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	cursor := s.cursor
	completed := s.completed
	busy := s.busy
	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)
	data := s.data.Clone()
	s.mu.Unlock()

	section, err := e.catalog.At(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current section: %w", err)
	}
	return &models.SessionSnapshot{
		ProviderID:         s.providerID,
		SectionID:          section.ID,
		SectionTitle:       section.Title,
		SectionDescription: section.Description,
		SectionIndex:       cursor,
		SectionCount:       e.catalog.Len(),
		Completed:          completed,
		Busy:               busy,
		Messages:           messages,
		SectionData:        data,
		QuickActions:       InferActions(messages),
	}, nil
}
