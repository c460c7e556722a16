package model

import "gorm.io/datatypes"

const QuestionOptionCount = 4

// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title     string     `gorm:"size:255;not null" json:"title"`
	LessonID  string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"lessonId"`
	Lesson    *Lesson    `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	UUIDBase
	QuizID        string                      `gorm:"type:varchar(36);not null;index" json:"quizId"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer int                         `gorm:"not null;default:0" json:"correctAnswer"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
}

func (Question) TableName() string {
	return "questions"
}

// QuizAttempt records a graded submission.
//
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	QuizID    string                          `gorm:"type:varchar(36);not null;index" json:"quizId"`
	Quiz      *Quiz                           `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	StudentID string                          `gorm:"type:varchar(36);not null;index" json:"studentId"`
	Student   *User                           `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Answers   datatypes.JSONType[map[int]int] `json:"answers"`
	Score     int                             `gorm:"not null" json:"score"`
	Correct   int                             `gorm:"not null" json:"correct"`
	Total     int                             `gorm:"not null" json:"total"`
	Passed    bool                            `gorm:"not null" json:"passed"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
