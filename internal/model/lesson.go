package model

type LessonType string

const (
	LessonVideo    LessonType = "video"
	LessonDocument LessonType = "document"
	LessonQuiz     LessonType = "quiz"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonDocument, LessonQuiz:
		return true
	}
	return false
}

// Lesson.Duration is the sum of its video durations. It is rewritten in the
// same transaction as any change to the lesson's video set.
//
// swagger:model Lesson
type Lesson struct {
	UUIDBase
	Title    string     `gorm:"size:255;not null" json:"title"`
	Content  *string    `gorm:"type:text" json:"content"`
	Type     LessonType `gorm:"size:20;not null;default:video" json:"type"`
	CourseID string     `gorm:"type:varchar(36);not null;index" json:"courseId"`
	Course   *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Position int        `gorm:"not null;default:0" json:"position"`
	Duration int        `gorm:"not null;default:0" json:"duration"`
	Version  int        `gorm:"not null;default:1" json:"version"`
	Videos   []Video    `gorm:"foreignKey:LessonID" json:"videos,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Video ids are not stable: replacing a lesson's video list issues new rows.
//
// swagger:model Video
type Video struct {
	UUIDBase
	Title    string `gorm:"size:255;not null" json:"title"`
	URL      string `gorm:"size:1024;not null" json:"url"`
	Duration int    `gorm:"not null;default:0" json:"duration"`
	Position int    `gorm:"not null;default:0" json:"position"`
	LessonID string `gorm:"type:varchar(36);not null;index" json:"lessonId"`
}

func (Video) TableName() string {
	return "videos"
}
