// Package scanner models the scanning device's cool-down: after any scan
// outcome the device is held off for a bounded window before it may fire
// again. This only guards one device against re-triggering on the same
// code; cross-device duplicates are handled by the recorder's store
// constraint.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qrpresence/internal/attendance"
)

// Outcome classifies one scan attempt.
type Outcome string

const (
	OutcomeRecorded  Outcome = "recorded"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeError     Outcome = "error"
	OutcomeCooling   Outcome = "cooling"
)

// Recorder is the attendance recording workflow.
type Recorder interface {
	RecordScan(ctx context.Context, raw, scannedBy string) (attendance.Record, error)
}

// Result is what the device shows the operator. RetryAfter is how long the
// scanner stays disabled before it returns to ready.
type Result struct {
	Outcome    Outcome
	Record     attendance.Record
	Message    string
	RetryAfter time.Duration
}

// Session is the per-operator scan gate.
type Session struct {
	recorder      Recorder
	operator      string
	scanCooldown  time.Duration
	errorCooldown time.Duration

	mu            sync.Mutex
	disabledUntil time.Time
	now           func() time.Time
}

// NewSession creates a session for one operator. scanCooldown applies after
// recorded and duplicate outcomes, errorCooldown after failures.
func NewSession(rec Recorder, operator string, scanCooldown, errorCooldown time.Duration) *Session {
	if scanCooldown <= 0 {
		scanCooldown = 3 * time.Second
	}
	if errorCooldown <= 0 {
		errorCooldown = 2 * time.Second
	}
	return &Session{
		recorder:      rec,
		operator:      operator,
		scanCooldown:  scanCooldown,
		errorCooldown: errorCooldown,
		now:           time.Now,
	}
}

// Scan runs one attempt through the recorder. Every outcome leaves the
// scanner disabled for a bounded window, after which it is ready again;
// nothing here can take the session out of service permanently.
func (s *Session) Scan(ctx context.Context, raw string) Result {
	s.mu.Lock()
	if wait := s.disabledUntil.Sub(s.now()); wait > 0 {
		s.mu.Unlock()
		return Result{
			Outcome:    OutcomeCooling,
			Message:    "scanner is cooling down",
			RetryAfter: wait,
		}
	}
	s.mu.Unlock()

	rec, err := s.recorder.RecordScan(ctx, raw, s.operator)

	var dup *attendance.DuplicateScanError
	switch {
	case err == nil:
		return s.finish(Result{
			Outcome: OutcomeRecorded,
			Record:  rec,
			Message: fmt.Sprintf("%s from %s has been marked present", rec.StudentName, rec.Section),
		}, s.scanCooldown)
	case errors.As(err, &dup):
		return s.finish(Result{
			Outcome: OutcomeDuplicate,
			Message: fmt.Sprintf("%s has already been marked present today", dup.StudentName),
		}, s.scanCooldown)
	case errors.Is(err, attendance.ErrInvalidPayload):
		return s.finish(Result{
			Outcome: OutcomeInvalid,
			Message: "invalid QR code",
		}, s.errorCooldown)
	default:
		return s.finish(Result{
			Outcome: OutcomeError,
			Message: "scan failed, please try again",
		}, s.errorCooldown)
	}
}

func (s *Session) finish(res Result, cooldown time.Duration) Result {
	s.mu.Lock()
	s.disabledUntil = s.now().Add(cooldown)
	s.mu.Unlock()
	res.RetryAfter = cooldown
	return res
}

// Registry hands out one session per operator.
type Registry struct {
	recorder      Recorder
	scanCooldown  time.Duration
	errorCooldown time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry.
func NewRegistry(rec Recorder, scanCooldown, errorCooldown time.Duration) *Registry {
	return &Registry{
		recorder:      rec,
		scanCooldown:  scanCooldown,
		errorCooldown: errorCooldown,
		sessions:      make(map[string]*Session),
	}
}

// Get returns the operator's session, creating it on first use.
func (r *Registry) Get(operator string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[operator]
	if !ok {
		s = NewSession(r.recorder, operator, r.scanCooldown, r.errorCooldown)
		r.sessions[operator] = s
	}
	return s
}
