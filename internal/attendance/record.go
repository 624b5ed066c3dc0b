package attendance

import "time"

// Record is one durable attendance event. StudentName and Section are a
// snapshot of the scanned payload, not re-derived from a profile later.
type Record struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	Section        string    `json:"section"`
	ScannedAt      time.Time `json:"scanned_at"`
	ScannedBy      string    `json:"scanned_by"`
	ParentNotified bool      `json:"parent_notified"`
}

// NotificationJob is the queued parent-notification work for one record.
// The phone number lives only here and in the scan payload, never in the
// attendance table.
type NotificationJob struct {
	RecordID    string `json:"record_id"`
	Phone       string `json:"phone"`
	StudentName string `json:"student_name"`
	Section     string `json:"section"`
}
