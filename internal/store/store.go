// Package store persists serialized bids and site profiles in a single-table
// key-value layout. Every backend offers the same upsert semantics with
// optimistic versioning.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names a logical table.
type Kind string

const (
	KindBids  Kind = "bids"
	KindSites Kind = "sites"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindBids, KindSites}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// AnyVersion makes Save an unconditional upsert.
const AnyVersion int64 = -1

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("version conflict")
	ErrUnknownKind    = errors.New("unknown kind")
	ErrInvalidKey     = errors.New("invalid key")
	ErrInvalidPayload = errors.New("payload is not valid JSON")
)

// Entry is one stored payload with its version metadata. Versions start at 1
// and increase by one on every successful save.
type Entry struct {
	Kind      Kind            `json:"kind"`
	Key       string          `json:"key"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store is the persistence contract. Save with ifVersion == AnyVersion
// overwrites unconditionally; ifVersion == 0 requires the key to be absent;
// any other value must equal the stored version or ErrConflict is returned.
// Save returns the new version.
type Store interface {
	Save(ctx context.Context, kind Kind, key string, payload []byte, ifVersion int64) (int64, error)
	Load(ctx context.Context, kind Kind, key string) (Entry, error)
	// List returns entries sorted by key.
	List(ctx context.Context, kind Kind) ([]Entry, error)
	Delete(ctx context.Context, kind Kind, key string) error
	Close() error
}

func checkArgs(kind Kind, key string) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func checkSave(kind Kind, key string, payload []byte) error {
	if err := checkArgs(kind, key); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	return nil
}

// checkVersion compares the caller's expectation with the stored version.
// current is 0 when the key does not exist.
func checkVersion(kind Kind, key string, current, ifVersion int64) error {
	if ifVersion == AnyVersion || ifVersion == current {
		return nil
	}
	return fmt.Errorf("%w: %s/%s is at version %d, not %d", ErrConflict, kind, key, current, ifVersion)
}

func notFound(kind Kind, key string) error {
	return fmt.Errorf("%s/%s: %w", kind, key, ErrNotFound)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
