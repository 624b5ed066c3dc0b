// Package viewer maintains a live, scope-filtered view of attendance
// records: one initial load, then strict prepends from the change feed.
package viewer

import (
	"context"
	"fmt"
	"sync"

	"qrpresence/internal/attendance"
	"qrpresence/internal/feed"
)

// DefaultAllLimit caps the admin view when no limit is given.
const DefaultAllLimit = 100

// Scope selects which records a viewer sees. A zero StudentID means every
// student (admin view); Limit only applies to the admin view.
type Scope struct {
	StudentID string
	Limit     int
}

// Self scopes the view to one student's full history.
func Self(studentID string) Scope {
	return Scope{StudentID: studentID}
}

// All scopes the view to the most recent records across all students.
func All(limit int) Scope {
	if limit <= 0 {
		limit = DefaultAllLimit
	}
	return Scope{Limit: limit}
}

// Matches reports whether an insert event belongs in this view.
func (s Scope) Matches(rec attendance.Record) bool {
	return s.StudentID == "" || s.StudentID == rec.StudentID
}

// RecordLister is the read surface the viewer needs from the store.
type RecordLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]attendance.Record, error)
	ListRecent(ctx context.Context, limit int) ([]attendance.Record, error)
}

// LoadError marks a failed initial fetch. It is non-fatal: the viewer keeps
// an empty list and the caller offers a retry.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("attendance load failed: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Viewer is safe for concurrent use once Watch has started.
type Viewer struct {
	store RecordLister
	feed  feed.Feed
	scope Scope

	// OnInsert, when set before Watch, is called after each prepend.
	OnInsert func(attendance.Record)

	mu      sync.Mutex
	records []attendance.Record
	sub     feed.Subscription
	closed  sync.Once
}

// New creates a viewer over the given scope.
func New(store RecordLister, f feed.Feed, scope Scope) *Viewer {
	return &Viewer{store: store, feed: f, scope: scope}
}

// Load fetches the initial record list, most recent first. On store error
// the list stays empty and a *LoadError is returned.
func (v *Viewer) Load(ctx context.Context) error {
	var (
		recs []attendance.Record
		err  error
	)
	if v.scope.StudentID != "" {
		recs, err = v.store.ListByStudent(ctx, v.scope.StudentID)
	} else {
		recs, err = v.store.ListRecent(ctx, v.scope.Limit)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.records = nil
		return &LoadError{Err: err}
	}
	v.records = recs
	return nil
}

// Watch subscribes to the change feed and prepends matching inserts until
// the context ends or Close is called. The feed delivers in commit order,
// so a prepend keeps the list sorted without re-fetching.
func (v *Viewer) Watch(ctx context.Context) error {
	sub, err := v.feed.Subscribe(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()

	go func() {
		defer sub.Close()
		for {
			select {
			case rec, open := <-sub.Records():
				if !open {
					return
				}
				if !v.scope.Matches(rec) {
					continue
				}
				v.prepend(rec)
				if v.OnInsert != nil {
					v.OnInsert(rec)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (v *Viewer) prepend(rec attendance.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append([]attendance.Record{rec}, v.records...)
	if v.scope.StudentID == "" && v.scope.Limit > 0 && len(v.records) > v.scope.Limit {
		v.records = v.records[:v.scope.Limit]
	}
}

// Records returns a snapshot copy of the current view.
func (v *Viewer) Records() []attendance.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]attendance.Record, len(v.records))
	copy(out, v.records)
	return out
}

// Close releases the feed subscription. Idempotent.
func (v *Viewer) Close() {
	v.closed.Do(func() {
		v.mu.Lock()
		sub := v.sub
		v.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
	})
}
