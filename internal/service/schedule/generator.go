package schedule

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/medivet/vetcare-api/pkg/errors"
)

// Generate expands a prescription into its ordered dose times:
// start + k*frequency for k = 0..n-1 where n = max(1, floor(durationDays*24/frequencyHours)).
// The floor division can produce zero for short courses; the caller always
// gets at least one dose. Pure function, no clock access.
func Generate(start time.Time, frequencyHours, durationDays float64) ([]time.Time, error) {
	if frequencyHours <= 0 {
		return nil, apperrors.InvalidSchedule(fmt.Sprintf("frequency must be positive, got %v", frequencyHours))
	}
	if durationDays <= 0 {
		return nil, apperrors.InvalidSchedule(fmt.Sprintf("duration must be positive, got %v", durationDays))
	}

	total := int(math.Floor(durationDays * 24 / frequencyHours))
	if total < 1 {
		total = 1
	}

	step := time.Duration(frequencyHours * float64(time.Hour))
	times := make([]time.Time, total)
	for k := 0; k < total; k++ {
		times[k] = start.Add(time.Duration(k) * step)
	}
	return times, nil
}
