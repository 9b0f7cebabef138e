// Package reconcile merges a freshly fetched batch of business records
// against the persisted snapshot, classifying each record as new,
// changed, unchanged, or vanished, and computing the mutation to apply
// to the store.
package reconcile

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightlane/prospect-cli/internal/model"
	"github.com/brightlane/prospect-cli/internal/store"
)

// Counts summarizes one reconciliation run.
type Counts struct {
	New       int `json:"new"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Vanished  int `json:"vanished"`
}

// Outcome is what a reconciliation run hands back to the caller. Records
// always reflects the current run's fetch, never the cumulative store;
// when Persisted is false the records were not saved and must be treated
// as display-only.
type Outcome struct {
	Records   []model.Record `json:"records"`
	Columns   []string       `json:"columns"`
	Counts    Counts         `json:"counts"`
	Persisted bool           `json:"persisted"`
}

// Engine reconciles search batches against a snapshot store.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// New creates an Engine backed by the given store.
func New(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// Reconcile classifies every record of the batch against the in-scope
// slice of the persisted snapshot, mutates the snapshot accordingly, and
// persists it in full.
//
// Any store failure is surfaced as the returned error while the Outcome
// still carries the unpersisted batch, so the run's fetch is never lost.
func (e *Engine) Reconcile(ctx context.Context, batch []model.Record, sc model.SearchContext) (*Outcome, error) {
	out := &Outcome{Records: batch, Columns: sc.DisplayColumns()}
	now := e.now()

	snap, err := e.store.Load(ctx)
	if err != nil {
		return out, err
	}

	scope := e.selectScope(snap.Records, sc)

	// Bootstrap: nothing in scope yet, append the whole batch unmodified.
	if len(scope) == 0 {
		snap.Records = append(snap.Records, batch...)
		out.Counts.New = len(batch)
		if err := e.store.Replace(ctx, snap); err != nil {
			return out, err
		}
		out.Persisted = true
		e.logCounts(sc, out.Counts)
		return out, nil
	}

	existingKeys := make([]model.CompareKey, len(scope))
	for i, idx := range scope {
		existingKeys[i] = snap.Records[idx].Key()
	}

	batchKeys := make(map[model.CompareKey]struct{}, len(batch))
	for _, r := range batch {
		batchKeys[r.Key()] = struct{}{}
	}

	// An existing row matched this run is consumed: it cannot be partial-
	// matched by a second batch record and is exempt from vanished marking.
	touched := make(map[int]bool, len(scope))

	for bi := range batch {
		key := batch[bi].Key()

		if si, ok := findExact(existingKeys, key); ok {
			idx := scope[si]
			snap.Records[idx].LastSeen = now
			touched[si] = true
			out.Counts.Unchanged++
			continue
		}

		if si, ok := findPartial(existingKeys, key, touched); ok {
			idx := scope[si]
			snap.Records[idx].Status = model.StatusChangedOld
			snap.Records[idx].LastSeen = now
			touched[si] = true

			batch[bi].Status = model.StatusChangedNew
			snap.Records = append(snap.Records, batch[bi])
			out.Counts.Changed++
			continue
		}

		snap.Records = append(snap.Records, batch[bi])
		out.Counts.New++
	}

	// Vanished records: typed scope only. A map search covers one area of
	// a category-wide scope, so "missing from this batch" means nothing.
	if sc.Mode == model.ModeTyped {
		for si, idx := range scope {
			if touched[si] {
				continue
			}
			if _, present := batchKeys[existingKeys[si]]; present {
				continue
			}
			snap.Records[idx].Status = model.StatusInactive
			snap.Records[idx].LastSeen = now
			out.Counts.Vanished++
		}
	}

	if err := e.store.Replace(ctx, snap); err != nil {
		return out, err
	}
	out.Persisted = true
	e.logCounts(sc, out.Counts)
	return out, nil
}

// selectScope returns the snapshot indices eligible for comparison:
// exact case-insensitive input-context match for typed searches, the
// "map: <category>" prefix for map searches. Cross-scope records are
// never compared or mutated.
func (e *Engine) selectScope(records []model.Record, sc model.SearchContext) []int {
	var scope []int
	if sc.Mode == model.ModeMap {
		prefix := sc.ScopePrefix()
		for i, r := range records {
			if strings.HasPrefix(strings.ToLower(r.InputContext), prefix) {
				scope = append(scope, i)
			}
		}
		return scope
	}

	label := sc.Label()
	for i, r := range records {
		if strings.EqualFold(r.InputContext, label) {
			scope = append(scope, i)
		}
	}
	return scope
}

// findExact returns the first scope position whose tuple equals key.
func findExact(keys []model.CompareKey, key model.CompareKey) (int, bool) {
	for i, k := range keys {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// findPartial returns the first unconsumed scope position sharing at
// least the partial-match threshold of comparison fields with key.
func findPartial(keys []model.CompareKey, key model.CompareKey, touched map[int]bool) (int, bool) {
	for i, k := range keys {
		if touched[i] {
			continue
		}
		if k.Overlap(key) >= model.PartialMatchThreshold {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) logCounts(sc model.SearchContext, c Counts) {
	zap.L().Info("reconciled batch",
		zap.String("run_id", sc.RunID),
		zap.String("context", sc.Label()),
		zap.Int("new", c.New),
		zap.Int("changed", c.Changed),
		zap.Int("unchanged", c.Unchanged),
		zap.Int("vanished", c.Vanished),
	)
}
