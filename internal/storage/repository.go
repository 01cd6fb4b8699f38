package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed persistence surface for JSON-encoded values.
// No transactions, no expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys and reports how many existed
	Delete(ctx context.Context, keys ...string) (int, error)
	// ScanPrefix calls fn for every stored key starting with prefix
	ScanPrefix(ctx context.Context, prefix string, fn func(key string) error) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// ParseError reports a stored value that could not be decoded
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse cached value %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// GetJSON reads key and decodes it into v.
// Returns ErrNotFound on a miss and *ParseError on undecodable content.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &ParseError{Key: key, Err: err}
	}
	return nil
}

// SetJSON encodes v and writes it under key
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

const deleteBatchSize = 100

// DeletePrefix removes every key starting with prefix and returns the count
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	var keys []string
	if err := s.ScanPrefix(ctx, prefix, func(key string) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to scan keys: %w", err)
	}

	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		n, err := s.Delete(ctx, keys[start:end]...)
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("failed to delete keys: %w", err)
		}
	}

	return deleted, nil
}
