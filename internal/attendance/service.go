package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"qrpresence/internal/queue"
)

// dayFormat is the calendar-day key used by the duplicate gate.
const dayFormat = "2006-01-02"

// RecordStore is the persistence surface the recorder needs.
type RecordStore interface {
	FindForDay(ctx context.Context, studentID, day string) (*Record, error)
	Insert(ctx context.Context, rec Record, day string) (Record, error)
}

// InsertPublisher pushes committed records onto the change feed.
type InsertPublisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Service turns decoded scan payloads into attendance records with
// same-day duplicate suppression.
type Service struct {
	store RecordStore
	feed  InsertPublisher
	queue queue.Queue
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a recorder. feed and q may be nil; propagation and
// notification are then skipped entirely.
func NewService(store RecordStore, feed InsertPublisher, q queue.Queue, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, feed: feed, queue: q, loc: loc, now: time.Now}
}

// RecordScan validates a raw scanned payload and writes at most one record
// for the student's calendar day.
//
// The advisory FindForDay read is the fast path: it supplies the already
// recorded student's name without a second query. The insert's uniqueness
// constraint is the real gate, so two scans racing through the check still
// produce exactly one row and the loser reports a duplicate.
func (s *Service) RecordScan(ctx context.Context, raw, scannedBy string) (Record, error) {
	p, err := ParsePayload(raw)
	if err != nil {
		return Record{}, err
	}
	if scannedBy == "" {
		return Record{}, errors.New("scanner identity required")
	}

	// One clock reading feeds both the timestamp and the dedup day, so the
	// displayed day can never drift from the day the record was charged to.
	now := s.now()
	day := now.In(s.loc).Format(dayFormat)

	existing, err := s.store.FindForDay(ctx, p.UserID, day)
	if err != nil {
		return Record{}, &PersistenceError{Op: "duplicate check", Err: err}
	}
	if existing != nil {
		return Record{}, &DuplicateScanError{StudentName: existing.StudentName}
	}

	rec := Record{
		StudentID:   p.UserID,
		StudentName: p.Name,
		Section:     p.Section,
		ScannedAt:   now,
		ScannedBy:   scannedBy,
	}
	stored, err := s.store.Insert(ctx, rec, day)
	if err != nil {
		if errors.Is(err, ErrDuplicateDay) {
			return Record{}, &DuplicateScanError{StudentName: p.Name}
		}
		return Record{}, &PersistenceError{Op: "insert", Err: err}
	}

	s.propagate(ctx, stored, p)
	return stored, nil
}

// propagate pushes the committed record to the change feed and enqueues
// the parent notification. Both are fire-and-forget: a failure here never
// fails the scan or touches the stored record.
func (s *Service) propagate(ctx context.Context, rec Record, p ScanPayload) {
	if s.feed != nil {
		if err := s.feed.Publish(ctx, rec); err != nil {
			log.Printf("feed publish failed for record %s: %v", rec.ID, err)
		}
	}
	if s.queue == nil || p.ParentNumber == "" {
		return
	}
	job := NotificationJob{
		RecordID:    rec.ID,
		Phone:       p.ParentNumber,
		StudentName: p.Name,
		Section:     p.Section,
	}
	body, err := json.Marshal(job)
	if err != nil {
		log.Printf("notification job encode failed for record %s: %v", rec.ID, err)
		return
	}
	if err := s.queue.Publish(ctx, queue.Message{Type: "notify", Body: body}); err != nil {
		log.Printf("notification enqueue failed for record %s: %v", rec.ID, err)
	}
}
