// Package store provides storage backends for the onboarding service.
//
// This file implements an SQLite-backed store for provider records and
// section data.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/iamanos/onboard/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the directory is
// created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveProvider inserts or updates a provider record.
func (s *SQLiteStore) SaveProvider(ctx context.Context, p models.Provider) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO providers (id, email, name, password_hash, document, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Document, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveProvider failed", "error", err, "providerID", p.ID)
		return fmt.Errorf("failed to save provider %s: %w", p.ID, err)
	}
	slog.Debug("SQLiteStore SaveProvider succeeded", "providerID", p.ID, "status", p.Status)
	return nil
}

// GetProvider retrieves a provider by ID; nil if not found.
func (s *SQLiteStore) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	return s.getProvider(ctx, `SELECT id, email, name, password_hash, document, status, created_at, updated_at
		FROM providers WHERE id = ?`, id)
}

// GetProviderByEmail retrieves a provider by email; nil if not found.
func (s *SQLiteStore) GetProviderByEmail(ctx context.Context, email string) (*models.Provider, error) {
	return s.getProvider(ctx, `SELECT id, email, name, password_hash, document, status, created_at, updated_at
		FROM providers WHERE email = ?`, email)
}

func (s *SQLiteStore) getProvider(ctx context.Context, query, arg string) (*models.Provider, error) {
	var p models.Provider
	var status string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Document, &status, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore getProvider failed", "error", err)
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}
	p.Status = models.ProviderStatus(status)
	return &p, nil
}

// SaveSectionData upserts the accumulator for one section of one provider.
func (s *SQLiteStore) SaveSectionData(ctx context.Context, providerID, sectionID string, data models.SectionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("SQLiteStore SaveSectionData marshal failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return fmt.Errorf("failed to marshal section data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO section_data (provider_id, section_id, data, updated_at)
		VALUES (?, ?, ?, ?)`,
		providerID, sectionID, string(payload), time.Now())
	if err != nil {
		slog.Error("SQLiteStore SaveSectionData failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return fmt.Errorf("failed to save section %s for provider %s: %w", sectionID, providerID, err)
	}
	slog.Debug("SQLiteStore SaveSectionData succeeded", "providerID", providerID, "sectionID", sectionID, "fields", len(data))
	return nil
}

// GetSectionData retrieves the stored accumulator for one section.
func (s *SQLiteStore) GetSectionData(ctx context.Context, providerID, sectionID string) (models.SectionData, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM section_data WHERE provider_id = ? AND section_id = ?`,
		providerID, sectionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.SectionData{}, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSectionData failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return nil, fmt.Errorf("failed to query section data: %w", err)
	}

	data := models.SectionData{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		slog.Error("SQLiteStore GetSectionData unmarshal failed", "error", err, "providerID", providerID, "sectionID", sectionID)
		return models.SectionData{}, nil
	}
	return data, nil
}

// MarkOnboardingComplete flips the provider record to onboarded. Idempotent:
// the update targets the status column only, so repeated calls converge.
func (s *SQLiteStore) MarkOnboardingComplete(ctx context.Context, providerID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE providers SET status = ?, updated_at = ? WHERE id = ?`,
		string(models.ProviderStatusOnboarded), time.Now(), providerID)
	if err != nil {
		slog.Error("SQLiteStore MarkOnboardingComplete failed", "error", err, "providerID", providerID)
		return fmt.Errorf("failed to mark provider %s complete: %w", providerID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("provider %s not found", providerID)
	}
	slog.Debug("SQLiteStore MarkOnboardingComplete succeeded", "providerID", providerID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
