// Package models defines provider account structures for the onboarding service.
package models

import (
	"strings"
	"time"
)

// ProviderStatus tracks how far a provider has progressed through onboarding.
type ProviderStatus string

const (
	// ProviderStatusPending marks a provider that registered but has not
	// finished the conversational onboarding.
	ProviderStatusPending ProviderStatus = "pending"
	// ProviderStatusOnboarded marks a provider whose final section was
	// persisted and whose record was marked complete.
	ProviderStatusOnboarded ProviderStatus = "onboarded"
)

// Provider is a service-provider account created by the registration form.
// Its ID is the session anchor for the onboarding conversation.
type Provider struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Document     string         `json:"document"`
	Status       ProviderStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RegisterRequest is the payload for POST /auth/register (step 1 of the flow).
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Document string `json:"document"`
}

// Validate checks the registration payload before any account is created.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if r.Password == "" {
		return ErrMissingPassword
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.TrimSpace(r.Document) == "" {
		return ErrMissingDocument
	}
	return nil
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if r.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

// AuthResponse is returned by register and login with the bearer credential
// that authorizes all onboarding calls.
type AuthResponse struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Token  string         `json:"token"`
	Status ProviderStatus `json:"status"`
}

// ChatRequest is the payload for submitting one conversation turn.
type ChatRequest struct {
	Message string `json:"message"`
}

// Validate checks a chat submission before it reaches the engine.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
