package attendance

import (
	"encoding/json"
	"fmt"
)

// ScanPayload is the decoded content of a student's QR code. It is
// untrusted input: produced by a camera scanner, consumed once, discarded.
type ScanPayload struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Section      string `json:"section"`
	ParentNumber string `json:"parent_number"`
}

// ParsePayload deserializes and validates a raw scanned string.
func ParsePayload(raw string) (ScanPayload, error) {
	var p ScanPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return ScanPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.UserID == "" || p.Name == "" {
		return ScanPayload{}, fmt.Errorf("%w: user_id and name are required", ErrInvalidPayload)
	}
	return p, nil
}

// Encode serializes the payload for embedding in a QR code.
func (p ScanPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
