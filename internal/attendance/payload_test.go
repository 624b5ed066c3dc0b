package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ScanPayload
		wantErr bool
	}{
		{
			name: "valid payload",
			raw:  `{"user_id":"s1","name":"Jane Doe","section":"11 WISDOM","parent_number":"+1555"}`,
			want: ScanPayload{UserID: "s1", Name: "Jane Doe", Section: "11 WISDOM", ParentNumber: "+1555"},
		},
		{
			name: "optional fields missing",
			raw:  `{"user_id":"s2","name":"Juan"}`,
			want: ScanPayload{UserID: "s2", Name: "Juan"},
		},
		{
			name:    "not json",
			raw:     "https://example.com/some-random-qr",
			wantErr: true,
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "missing user_id",
			raw:     `{"name":"Jane Doe","section":"11 WISDOM"}`,
			wantErr: true,
		},
		{
			name:    "missing name",
			raw:     `{"user_id":"s1"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadEncodeRoundTrip(t *testing.T) {
	p := ScanPayload{UserID: "s1", Name: "Jane Doe", Section: "11 WISDOM", ParentNumber: "+1555"}
	raw, err := p.Encode()
	require.NoError(t, err)

	got, err := ParsePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
