package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/learnx/internal/shared"
)

// Entry describes one stored key without its value.
type Entry struct {
	Key       string    `json:"key"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StorageRepository is a durable key/value store on the storage table.
type StorageRepository struct {
	db *sql.DB
}

// NewStorageRepository creates a new [StorageRepository] with the given database connection
func NewStorageRepository(db *sql.DB) *StorageRepository {
	return &StorageRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrNotFound].
func (r *StorageRepository) Get(key string) ([]byte, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage: %w", err)
	}
	return []byte(value), nil
}

// Set inserts or replaces the value under key.
func (r *StorageRepository) Set(key string, value []byte) error {
	query := `
		INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageFailed, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (r *StorageRepository) Remove(key string) error {
	if _, err := r.db.Exec(`DELETE FROM storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorageFailed, err)
	}
	return nil
}

// List returns every stored key ordered by key.
func (r *StorageRepository) List() ([]Entry, error) {
	rows, err := r.db.Query(`SELECT key, length(value), updated_at FROM storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Size, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan storage row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
