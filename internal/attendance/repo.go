package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const recordColumns = `id, student_id, student_name, section, scanned_at, scanned_by, parent_notified`

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindForDay returns the record for a student on the given calendar day,
// or nil when none exists. day is formatted 2006-01-02.
func (r *Repository) FindForDay(ctx context.Context, studentID, day string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE student_id = $1 AND scan_date = $2
	`, studentID, day)
	var rec Record
	if err := scanRecord(row, &rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new record. The unique index on (student_id, scan_date)
// is the authoritative duplicate gate: a conflicting concurrent insert
// surfaces as ErrDuplicateDay, never as a second row. The caller supplies
// scanned_at from the same clock reading that produced day.
func (r *Repository) Insert(ctx context.Context, rec Record, day string) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, student_name, section, scanned_at, scan_date, scanned_by, parent_notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		ON CONFLICT (student_id, scan_date) DO NOTHING
		RETURNING scanned_at
	`, rec.ID, rec.StudentID, rec.StudentName, rec.Section, rec.ScannedAt, day, rec.ScannedBy)
	if err := row.Scan(&rec.ScannedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrDuplicateDay
		}
		return Record{}, err
	}
	rec.ParentNotified = false
	return rec, nil
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance WHERE id = $1
	`, id)
	var rec Record
	if err := scanRecord(row, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByStudent returns a student's full history, most recent first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE student_id = $1
		ORDER BY scanned_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListRecent returns the most recent records across all students.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		ORDER BY scanned_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// MarkParentNotified flips the notified flag after a successful delivery.
func (r *Repository) MarkParentNotified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET parent_notified = TRUE WHERE id = $1
	`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, rec *Record) error {
	return row.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.Section,
		&rec.ScannedAt, &rec.ScannedBy, &rec.ParentNotified)
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
