package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `"60s"`, want: time.Minute},
		{name: "compound string", in: `"1h30m"`, want: 90 * time.Minute},
		{name: "nanoseconds", in: `1000000000`, want: time.Second},
		{name: "bad string", in: `"soon"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 100 * time.Second})
	require.NoError(t, err)
	assert.JSONEq(t, `"1m40s"`, string(b))
}

func TestAddWholeDays(t *testing.T) {
	now := time.Date(2026, time.March, 28, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		minutes int
		want    time.Time
	}{
		{name: "exact days", minutes: 7 * 1440, want: now.AddDate(0, 0, 7)},
		{name: "remainder truncated", minutes: 2*1440 + 1439, want: now.AddDate(0, 0, 2)},
		{name: "thirty days", minutes: 43200, want: time.Date(2026, time.April, 27, 10, 30, 0, 0, time.UTC)},
		{name: "sub-day falls back to duration", minutes: 90, want: now.Add(90 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddWholeDays(now, tt.minutes))
		})
	}
}
