package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mtx/internal/shared"
)

// LocalStorage is a string key-value store backed by the local_storage table.
//
// It plays the part of a browser's localStorage for the CLI: values are opaque strings,
// usually JSON documents, and writes replace the previous value wholesale.
type LocalStorage struct {
	db *sql.DB
}

// Entry is one stored key with its last write time.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLocalStorage creates a new [LocalStorage] with the given database connection
func NewLocalStorage(db *sql.DB) *LocalStorage {
	return &LocalStorage{db: db}
}

// Get returns the value stored under key and whether it exists.
func (s *LocalStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorage, key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *LocalStorage) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty storage key", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *LocalStorage) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM local_storage WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", shared.ErrStorage, key, err)
	}
	return nil
}

// List returns every entry, most recently written first.
func (s *LocalStorage) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT key, value, updated_at FROM local_storage ORDER BY updated_at DESC, key ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list entries: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan entry: %v", shared.ErrStorage, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating entries: %v", shared.ErrStorage, err)
	}
	return entries, nil
}

// Clear removes every entry and returns how many were deleted.
func (s *LocalStorage) Clear() (int64, error) {
	result, err := s.db.Exec("DELETE FROM local_storage")
	if err != nil {
		return 0, fmt.Errorf("%w: failed to clear storage: %v", shared.ErrStorage, err)
	}
	return result.RowsAffected()
}
