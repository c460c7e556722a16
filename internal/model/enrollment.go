package model

import "time"

// swagger:model Enrollment
type Enrollment struct {
	UUIDBase
	CourseID  string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_course_student" json:"courseId"`
	Course    *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	StudentID string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollment_course_student;index" json:"studentId"`
	Student   *User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`

	// Progress is the completion percent of the course for the student.
	Progress int `gorm:"-" json:"progress"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// Completed is nil until the student starts the lesson.
//
// swagger:model Progress
type Progress struct {
	UUIDBase
	LessonID    string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_lesson_student" json:"lessonId"`
	Lesson      *Lesson    `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
	StudentID   string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_lesson_student;index" json:"studentId"`
	Student     *User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Completed   *bool      `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (Progress) TableName() string {
	return "progresses"
}
