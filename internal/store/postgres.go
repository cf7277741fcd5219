// Package store provides storage backends for the onboarding service.
//
// This file implements a PostgreSQL-backed store for provider records and
// section data.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/iamanos/onboard/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// SaveProvider inserts or updates a provider record.
func (s *PostgresStore) SaveProvider(ctx context.Context, p models.Provider) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO providers (id, email, name, password_hash, document, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			document = EXCLUDED.document,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Document, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveProvider failed", "error", err, "providerID", p.ID)
		return fmt.Errorf("failed to save provider %s: %w", p.ID, err)
	}
	slog.Debug("PostgresStore SaveProvider succeeded", "providerID", p.ID, "status", p.Status)
	return nil
}

// GetProvider retrieves a provider by ID; nil if not found.
func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	return s.getProvider(ctx, `SELECT id, email, name, password_hash, document, status, created_at, updated_at
		FROM providers WHERE id = $1`, id)
}

// GetProviderByEmail retrieves a provider by email; nil if not found.
func (s *PostgresStore) GetProviderByEmail(ctx context.Context, email string) (*models.Provider, error) {
	return s.getProvider(ctx, `SELECT id, email, name, password_hash, document, status, created_at, updated_at
		FROM providers WHERE email = $1`, email)
}

func (s *PostgresStore) getProvider(ctx context.Context, query, arg string) (*models.Provider, error) {
	var p models.Provider
	var status string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Document, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore getProvider failed", "error", err)
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}
	p.Status = models.ProviderStatus(status)
	return &p, nil
}

// SaveSectionData upserts the accumulator for one section of one provider.
func (s *PostgresStore) SaveSectionData(ctx context.Context, providerID, sectionID string, data models.SectionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("PostgresStore SaveSectionData marshal failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return fmt.Errorf("failed to marshal section data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO section_data (provider_id, section_id, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_id, section_id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		providerID, sectionID, string(payload), time.Now())
	if err != nil {
		slog.Error("PostgresStore SaveSectionData failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return fmt.Errorf("failed to save section %s for provider %s: %w", sectionID, providerID, err)
	}
	slog.Debug("PostgresStore SaveSectionData succeeded", "providerID", providerID, "sectionID", sectionID, "fields", len(data))
	return nil
}

// GetSectionData retrieves the stored accumulator for one section.
func (s *PostgresStore) GetSectionData(ctx context.Context, providerID, sectionID string) (models.SectionData, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM section_data WHERE provider_id = $1 AND section_id = $2`,
		providerID, sectionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.SectionData{}, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSectionData failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return nil, fmt.Errorf("failed to query section data: %w", err)
	}

	data := models.SectionData{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		slog.Error("PostgresStore GetSectionData unmarshal failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return models.SectionData{}, nil
	}
	return data, nil
}

// MarkOnboardingComplete flips the provider record to onboarded. Idempotent.
func (s *PostgresStore) MarkOnboardingComplete(ctx context.Context, providerID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE providers SET status = $1, updated_at = $2 WHERE id = $3`,
		string(models.ProviderStatusOnboarded), time.Now(), providerID)
	if err != nil {
		slog.Error("PostgresStore MarkOnboardingComplete failed", "error", err, "providerID", providerID)
		return fmt.Errorf("failed to mark provider %s complete: %w", providerID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("provider %s not found", providerID)
	}
	slog.Debug("PostgresStore MarkOnboardingComplete succeeded", "providerID", providerID)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
