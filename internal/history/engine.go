// Package history fetches, sorts, filters, and retries a user's scan
// history. Sorting is a fetch parameter applied by the store; filtering is a
// pure post-fetch projection recomputed on every input change.
package history

import (
	"context"
	"strings"
	"sync"

	"github.com/zombor/scan-history/internal/auth"
	"github.com/zombor/scan-history/internal/content"
	"github.com/zombor/scan-history/internal/fault"
	"github.com/zombor/scan-history/internal/scan"
)

// timeLayout renders timestamps the way the history list displays them, so
// free-text queries can match what the user sees.
const timeLayout = "Jan 2, 2006 3:04 PM"

// Repository lists scan records for an owner.
type Repository interface {
	List(ctx context.Context, owner auth.Identity, order scan.SortOrder) ([]*scan.Record, error)
}

// Service satisfies Repository.
var _ Repository = (*scan.Service)(nil)

// Entry is a record paired with its display classification.
type Entry struct {
	*scan.Record
	Content content.Classification
}

// Engine drives one history-screen instance. Each fetch is sequence-stamped
// so a refresh or sort-order change supersedes any earlier in-flight list
// call; results from superseded calls are discarded instead of cancelled.
type Engine struct {
	repo  Repository
	users auth.Provider

	mu       sync.Mutex
	order    scan.SortOrder
	query    string
	base     []*scan.Record
	visible  []*scan.Record
	fetchSeq uint64
	loading  bool
	lastErr  error
}

// NewEngine creates an engine that lists newest scans first.
func NewEngine(repo Repository, users auth.Provider) *Engine {
	return &Engine{
		repo:  repo,
		users: users,
		order: scan.SortDescending,
	}
}

// Load performs the initial fetch.
func (e *Engine) Load(ctx context.Context) error {
	return e.fetch(ctx)
}

// Refresh re-issues the list call with the current sort order, replacing
// both the base and filtered sequences.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.fetch(ctx)
}

// Retry re-invokes the fetch after a surfaced failure. Retries are always
// explicit; the engine never retries on its own.
func (e *Engine) Retry(ctx context.Context) error {
	return e.fetch(ctx)
}

// SetSortOrder changes the ordering and refetches. A no-op change does not
// trigger a fetch, so one toggle costs exactly one list call.
func (e *Engine) SetSortOrder(ctx context.Context, order scan.SortOrder) error {
	e.mu.Lock()
	if e.order == order {
		e.mu.Unlock()
		return nil
	}
	e.order = order
	e.mu.Unlock()

	return e.fetch(ctx)
}

// SetQuery recomputes the filtered view synchronously. The base sequence is
// never mutated.
func (e *Engine) SetQuery(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = query
	e.visible = Filter(e.base, query)
}

// SortOrder returns the current sort order.
func (e *Engine) SortOrder() scan.SortOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order
}

// Loading reports whether the latest fetch is still in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the failure of the latest fetch, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Records returns the filtered view.
func (e *Engine) Records() []*scan.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*scan.Record, len(e.visible))
	copy(out, e.visible)
	return out
}

// Entries returns the filtered view classified for display.
func (e *Engine) Entries() []Entry {
	records := e.Records()
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{Record: r, Content: content.Classify(r.Data, r.Type)})
	}
	return entries
}

// Cached returns a record already held by the engine, for detail views that
// were handed a copy and can skip the fetch by ID.
func (e *Engine) Cached(id string) (*scan.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.base {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

func (e *Engine) fetch(ctx context.Context) error {
	owner, ok := e.users.CurrentUser()
	if !ok {
		err := fault.New(fault.Auth, "you must be logged in to view scan history")
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.fetchSeq++
	seq := e.fetchSeq
	order := e.order
	e.loading = true
	e.mu.Unlock()

	records, err := e.repo.List(ctx, owner, order)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.fetchSeq {
		// superseded by a later fetch; drop this result
		return nil
	}
	e.loading = false
	if err != nil {
		e.lastErr = err
		return err
	}
	e.lastErr = nil
	e.base = records
	e.visible = Filter(records, e.query)
	return nil
}

// Filter returns the records whose data, symbology label, or displayed scan
// time contains the query, case-insensitively. It is a pure projection:
// filtering an already-filtered sequence with the same query returns the
// same sequence.
func Filter(records []*scan.Record, query string) []*scan.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}

	out := make([]*scan.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Data), q) ||
			strings.Contains(strings.ToLower(r.Type), q) ||
			strings.Contains(strings.ToLower(r.ScannedAt.Format(timeLayout)), q) {
			out = append(out, r)
		}
	}
	return out
}
