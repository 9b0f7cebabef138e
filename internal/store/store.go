// Package store persists the reconciliation snapshot: one flat table of
// records, read and rewritten in full. The only update primitive the
// original sheet offered was clear-then-write; the version stamp turns
// that into an optimistic-concurrency contract so a concurrent run fails
// loudly instead of silently losing the other writer's classification.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/brightlane/prospect-cli/internal/model"
)

// ErrVersionConflict is returned by Replace when the stored snapshot
// version moved since the caller's Load.
var ErrVersionConflict = eris.New("store: snapshot version conflict")

// Snapshot is the full persisted dataset plus the version it was read at.
// Record order is preserved across Load/Replace; the reconciliation scan
// depends on store order.
type Snapshot struct {
	Version int64
	Records []model.Record
}

// Store defines the snapshot persistence interface.
type Store interface {
	// Load reads the entire snapshot.
	Load(ctx context.Context) (*Snapshot, error)

	// Replace overwrites the entire snapshot. The snapshot's Version must
	// equal the currently stored version or ErrVersionConflict is returned
	// and nothing is written.
	Replace(ctx context.Context, snap *Snapshot) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
