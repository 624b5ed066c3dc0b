package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrpresence/internal/attendance"
)

func TestEncodePNG(t *testing.T) {
	p := attendance.ScanPayload{UserID: "s1", Name: "Jane Doe", Section: "11 WISDOM", ParentNumber: "+1555"}

	b, err := EncodePNG(p, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestEncodePNGCustomSize(t *testing.T) {
	p := attendance.ScanPayload{UserID: "s1", Name: "Juan"}

	b, err := EncodePNG(p, 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
