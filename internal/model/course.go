package model

import "time"

// swagger:model Course
type Course struct {
	UUIDBase
	Title       *string    `gorm:"size:255" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	TeacherID   *string    `gorm:"type:varchar(36);index" json:"teacherId"`
	Teacher     *User      `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`

	// LessonCount is derived on every read, never stored.
	LessonCount int64 `gorm:"-" json:"lessonCount"`
}

func (Course) TableName() string {
	return "courses"
}
