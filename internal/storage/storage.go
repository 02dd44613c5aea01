// Package storage is the durable key-value adapter behind player preferences and
// leaderboards. Keys are scoped to an owner, the player's session ID.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidOwner   = errors.New("invalid owner ID format")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// KV is one owner's view of the store.
type KV interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Clear removes key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
}

// Backend hands out owner-scoped KVs over one physical store.
type Backend interface {
	Scope(owner string) (KV, error)
	Close() error
}

// Sweeper is implemented by backends that can drop owners idle since before cutoff.
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// Kind names a backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindGdata  Kind = "gdata"
)

// Options configures Open. Only the fields for the chosen kind are read.
type Options struct {
	Dir        string
	SQLitePath string
	AppName    string
}

// Open builds the backend named by kind.
func Open(kind Kind, opts Options) (Backend, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindMemory:
		return NewMemory(), nil
	case KindFile:
		return NewFile(opts.Dir)
	case KindSQLite:
		return OpenSQLite(opts.SQLitePath)
	case KindGdata:
		return OpenGdata(opts.AppName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// checkOwner accepts only UUIDs so owners are safe as file names and object keys.
func checkOwner(owner string) error {
	if len(owner) != 36 {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	if _, err := uuid.Parse(owner); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	return nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage key is required")
	}
	return nil
}
