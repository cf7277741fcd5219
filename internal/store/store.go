// Package store provides storage backends for provider records and
// per-section onboarding data.
//
// Section saves are idempotent upserts keyed by (provider ID, section ID);
// completion marks are safely repeatable. Backends: in-memory (tests),
// SQLite, and PostgreSQL.
package store

import (
	"context"
	"strings"

	"github.com/iamanos/onboard/internal/models"
)

// Store is the persistence collaborator for the onboarding flow. All calls
// may cross a network boundary and honor context cancellation.
type Store interface {
	// SaveProvider inserts or updates a provider record.
	SaveProvider(ctx context.Context, p models.Provider) error

	// GetProvider retrieves a provider by ID; nil if not found.
	GetProvider(ctx context.Context, id string) (*models.Provider, error)

	// GetProviderByEmail retrieves a provider by email; nil if not found.
	GetProviderByEmail(ctx context.Context, email string) (*models.Provider, error)

	// SaveSectionData upserts the full accumulator for one section of one
	// provider. Repeated identical saves must not duplicate state.
	SaveSectionData(ctx context.Context, providerID, sectionID string, data models.SectionData) error

	// GetSectionData retrieves the stored accumulator for one section; an
	// empty map if none was saved.
	GetSectionData(ctx context.Context, providerID, sectionID string) (models.SectionData, error)

	// MarkOnboardingComplete flips the provider record to onboarded.
	// Must be idempotent: repeated calls produce one completed record.
	MarkOnboardingComplete(ctx context.Context, providerID string) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL is
// recognized by URL scheme or key=value connection strings; anything else
// is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
