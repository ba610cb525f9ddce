package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medivet/vetcare-api/pkg/errors"
)

func TestGenerateDoseCount(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency float64
		duration  float64
		want      int
	}{
		{"every 8h for 3 days", 8, 3, 9},
		{"every 12h for 1 day", 12, 1, 2},
		{"every 6h for half a day", 6, 0.5, 2},
		{"fractional frequency", 1.5, 1, 16},
		{"course shorter than one interval", 24, 0.5, 1},
		{"exactly one interval", 24, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := Generate(start, tt.frequency, tt.duration)
			require.NoError(t, err)
			assert.Len(t, times, tt.want)
		})
	}
}

func TestGenerateSpacing(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	times, err := Generate(start, 8, 2)
	require.NoError(t, err)
	require.Len(t, times, 6)

	assert.Equal(t, start, times[0])
	for i := 1; i < len(times); i++ {
		assert.Equal(t, 8*time.Hour, times[i].Sub(times[i-1]))
	}
}

func TestGenerateInvalidParameters(t *testing.T) {
	start := time.Now()

	for _, tt := range []struct {
		name      string
		frequency float64
		duration  float64
	}{
		{"zero frequency", 0, 3},
		{"negative frequency", -8, 3},
		{"zero duration", 8, 0},
		{"negative duration", 8, -1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			times, err := Generate(start, tt.frequency, tt.duration)
			assert.Nil(t, times)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrInvalidSchedule, apperrors.Code(err))
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	a, err := Generate(start, 6.5, 2.25)
	require.NoError(t, err)
	b, err := Generate(start, 6.5, 2.25)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
