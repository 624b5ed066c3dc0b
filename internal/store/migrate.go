package store

import "context"

// Migrate applies the attendance schema. The unique index on
// (student_id, scan_date) is what makes one-record-per-student-per-day a
// store guarantee rather than an advisory check.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance (
		id              UUID PRIMARY KEY,
		student_id      TEXT NOT NULL,
		student_name    TEXT NOT NULL,
		section         TEXT NOT NULL DEFAULT '',
		scanned_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		scan_date       DATE NOT NULL,
		scanned_by      TEXT NOT NULL,
		parent_notified BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_day
		ON attendance (student_id, scan_date);
	CREATE INDEX IF NOT EXISTS idx_attendance_scanned_at
		ON attendance (scanned_at DESC);
	`
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
