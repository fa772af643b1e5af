// Package statestore talks to the persisted-state collaborator: a key-value
// tree addressed by slash paths, JSON bodies, whole-document writes. Two
// backends share the contract — the remote HTTP store and a local JSON
// datastore used when no remote root is configured.
package statestore

import (
	"context"
	"encoding/json"
)

// Store reads and writes JSON sub-documents by path. There are no partial
// updates: every Put replaces the whole sub-document. There is also no
// transaction: concurrent read-modify-write cycles for the same path race
// and the slower write wins.
type Store interface {
	// Get decodes the document at path into out. found is false when the
	// path is absent (the remote store returns the literal "null").
	Get(ctx context.Context, path string, out any) (found bool, err error)
	// Put replaces the document at path.
	Put(ctx context.Context, path string, v any) error
	// Range returns up to limit children of path, keyed by child name,
	// ordered by key with the last (greatest) keys kept.
	Range(ctx context.Context, path string, limit int) (map[string]json.RawMessage, error)
}
