package util

// Access resources, as named in the role policy.
const (
	ResourceUser        = "User"
	ResourceCourse      = "Course"
	ResourceLesson      = "Lesson"
	ResourceVideo       = "Video"
	ResourceEnrollment  = "Enrollment"
	ResourceProgress    = "Progress"
	ResourceQuiz        = "Quiz"
	ResourceQuestion    = "Question"
	ResourceQuizAttempt = "QuizAttempt"
	ResourceStatistics  = "Statistics"
	ResourceDashboard   = "Dashboard"
)
