package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "09:00"},
		{in: "23:59"},
		{in: "9:00", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TimeString(tt.in), got)
		})
	}
}

func TestTimeString_Arithmetic(t *testing.T) {
	start := MustTimeString("09:30")

	assert.Equal(t, 570, start.Minutes())

	next, err := start.AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), next)
	assert.True(t, start.IsBefore(next))
	assert.True(t, next.IsAfter(start))

	_, err = MustTimeString("23:30").AddMinutes(30)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_OnDate(t *testing.T) {
	day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.March, 3, 14, 5, 0, 0, time.UTC), MustTimeString("14:05").OnDate(day))
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("08:15:00"))
	assert.Equal(t, TimeString("08:15"), ts)

	require.NoError(t, ts.Scan([]byte("17:45:00")))
	assert.Equal(t, TimeString("17:45"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.ErrorIs(t, ts.Scan(42), ErrInvalidTimeString)
}
