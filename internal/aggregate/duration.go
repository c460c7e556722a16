package aggregate

import (
	"errors"
	"fmt"
)

var ErrNegativeDuration = errors.New("video duration must not be negative")

// LessonDuration sums the durations of a lesson's complete video set.
func LessonDuration(durations []int) (int, error) {
	total := 0
	for i, d := range durations {
		if d < 0 {
			return 0, fmt.Errorf("video %d: %w", i, ErrNegativeDuration)
		}
		total += d
	}
	return total, nil
}
