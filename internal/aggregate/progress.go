package aggregate

import "math"

// ProgressPercent is round(100 * completed / total), or 0 for a course
// without lessons.
func ProgressPercent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	if completed < 0 {
		completed = 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// CourseStatistics summarizes the enrollments of one course.
type CourseStatistics struct {
	Enrollments    int `json:"enrollments"`
	AvgProgress    int `json:"avgProgress"`
	CompletedCount int `json:"completedCount"`
	CompletionRate int `json:"completionRate"`
}

// Summarize folds per-enrollment progress percents into course statistics.
func Summarize(percents []int) CourseStatistics {
	stats := CourseStatistics{Enrollments: len(percents)}
	if len(percents) == 0 {
		return stats
	}
	sum := 0
	for _, p := range percents {
		sum += p
		if p >= 100 {
			stats.CompletedCount++
		}
	}
	stats.AvgProgress = int(math.Round(float64(sum) / float64(len(percents))))
	stats.CompletionRate = ProgressPercent(int64(stats.CompletedCount), int64(len(percents)))
	return stats
}
