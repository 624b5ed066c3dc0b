// Package qr renders student scan payloads as QR code images.
package qr

import (
	qrcode "github.com/skip2/go-qrcode"

	"qrpresence/internal/attendance"
)

// DefaultSize is the rendered PNG edge length in pixels.
const DefaultSize = 256

// EncodePNG renders the payload as a QR code PNG.
func EncodePNG(p attendance.ScanPayload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	raw, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(raw, qrcode.Medium, size)
}
