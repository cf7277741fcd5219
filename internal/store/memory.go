// Package store provides storage backends for the onboarding service.
//
// This file implements an in-memory store used by tests and local runs.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iamanos/onboard/internal/models"
)

// InMemoryStore is a thread-safe in-memory Store implementation.
type InMemoryStore struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
	sections  map[string]models.SectionData // keyed providerID + "/" + sectionID
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		providers: make(map[string]models.Provider),
		sections:  make(map[string]models.SectionData),
	}
}

func sectionKey(providerID, sectionID string) string {
	return providerID + "/" + sectionID
}

// SaveProvider inserts or updates a provider record.
func (s *InMemoryStore) SaveProvider(ctx context.Context, p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
	return nil
}

// GetProvider retrieves a provider by ID; nil if not found.
func (s *InMemoryStore) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetProviderByEmail retrieves a provider by email; nil if not found.
func (s *InMemoryStore) GetProviderByEmail(ctx context.Context, email string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.Email == email {
			provider := p
			return &provider, nil
		}
	}
	return nil, nil
}

// SaveSectionData upserts the accumulator for one section of one provider.
func (s *InMemoryStore) SaveSectionData(ctx context.Context, providerID, sectionID string, data models.SectionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionKey(providerID, sectionID)] = data.Clone()
	return nil
}

// GetSectionData retrieves the stored accumulator for one section.
func (s *InMemoryStore) GetSectionData(ctx context.Context, providerID, sectionID string) (models.SectionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.sections[sectionKey(providerID, sectionID)]
	if !ok {
		return models.SectionData{}, nil
	}
	return data.Clone(), nil
}

// MarkOnboardingComplete flips the provider record to onboarded. Idempotent.
func (s *InMemoryStore) MarkOnboardingComplete(ctx context.Context, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[providerID]
	if !ok {
		return fmt.Errorf("provider %s not found", providerID)
	}
	if p.Status != models.ProviderStatusOnboarded {
		p.Status = models.ProviderStatusOnboarded
		p.UpdatedAt = time.Now()
		s.providers[providerID] = p
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
