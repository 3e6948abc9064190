package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned by FindByName when no record matches.
var ErrFileNotFound = errors.New("file not found")

// FileRecord is the metadata row kept per uploaded file. The record is
// immutable after creation except for DownloadCount; the blob bytes live
// in object storage under StoragePath.
type FileRecord struct {
	ID           uuid.UUID
	StoragePath  string
	OriginalName string
	// PasswordHash is nil for unprotected files.
	PasswordHash  *string
	DownloadCount int64
	CreatedAt     time.Time
}

// Protected reports whether a download requires a password.
func (f *FileRecord) Protected() bool {
	return f.PasswordHash != nil
}

// recordStore is the persistence contract the handlers depend on.
// fileStore is the Postgres implementation; tests substitute stubs.
type recordStore interface {
	Create(ctx context.Context, storagePath, originalName string, passwordHash *string) (uuid.UUID, error)
	FindByName(ctx context.Context, name string) (*FileRecord, error)
	IncrementDownloadCount(ctx context.Context, name string) error
}

type fileStore struct {
	db *sql.DB
}

func newFileStore(db *sql.DB) *fileStore {
	return &fileStore{db: db}
}

// Create inserts a new record with a zero download count and returns its id.
func (s *fileStore) Create(ctx context.Context, storagePath, originalName string, passwordHash *string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, storage_path, original_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, id, storagePath, originalName, passwordHash)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert file record: %w", err)
	}
	return id, nil
}

// FindByName resolves a record by its original filename. Nothing stops two
// uploads from sharing a name; the newest record wins so repeated lookups
// are at least deterministic.
func (s *fileStore) FindByName(ctx context.Context, name string) (*FileRecord, error) {
	var (
		rec  FileRecord
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, storage_path, original_name, password_hash, download_count, created_at
		FROM files
		WHERE original_name = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, name).Scan(&rec.ID, &rec.StoragePath, &rec.OriginalName, &hash, &rec.DownloadCount, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("lookup file record: %w", err)
	}
	if hash.Valid {
		rec.PasswordHash = &hash.String
	}
	return &rec, nil
}

// IncrementDownloadCount bumps the counter for every record sharing the
// name. The increment happens inside the UPDATE, so concurrent downloads
// never lose updates.
func (s *fileStore) IncrementDownloadCount(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files SET download_count = download_count + 1 WHERE original_name = $1
	`, name)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}
