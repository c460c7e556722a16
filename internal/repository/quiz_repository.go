package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

// Create fails with gorm.ErrDuplicatedKey when the lesson already has a quiz.
func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(quiz).Error
}

func (r *QuizRepository) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Questions", orderByPosition).
		First(&quiz, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ExistsForLesson(ctx context.Context, lessonID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Quiz{}).Where("lesson_id = ?", lessonID).Count(&n).Error
	return n > 0, err
}

type QuizFilter struct {
	LessonID string
	Page     int
	Limit    int
}

func (r *QuizRepository) List(ctx context.Context, f QuizFilter) ([]model.Quiz, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Quiz{})
	if f.LessonID != "" {
		q = q.Where("lesson_id = ?", f.LessonID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	err := paginate(q, f.Page, f.Limit).Order("created_at ASC").Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, r.DB, &model.Quiz{}, id, fields)
}

func (r *QuizRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.DB, &model.Quiz{}, id)
}

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	if err := r.DB.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

type QuestionFilter struct {
	QuizID string
	Page   int
	Limit  int
}

func (r *QuestionRepository) List(ctx context.Context, f QuestionFilter) ([]model.Question, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Question{})
	if f.QuizID != "" {
		q = q.Where("quiz_id = ?", f.QuizID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []model.Question
	err := paginate(q, f.Page, f.Limit).Order("quiz_id ASC, position ASC, created_at ASC").Find(&questions).Error
	return questions, total, err
}

func (r *QuestionRepository) NextPosition(ctx context.Context, quizID string) (int, error) {
	var last int
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&last).Error
	return last + 1, err
}

func (r *QuestionRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, r.DB, &model.Question{}, id, fields)
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Question{}, id)
}

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

type QuizAttemptFilter struct {
	QuizID    string
	StudentID string
	Page      int
	Limit     int
}

func (r *QuizAttemptRepository) List(ctx context.Context, f QuizAttemptFilter) ([]model.QuizAttempt, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.QuizAttempt{})
	if f.QuizID != "" {
		q = q.Where("quiz_id = ?", f.QuizID)
	}
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []model.QuizAttempt
	err := paginate(q, f.Page, f.Limit).Order("created_at DESC").Find(&attempts).Error
	return attempts, total, err
}

func (r *QuizAttemptRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.DB.WithContext(ctx).Where("student_id = ?", studentID).Delete(&model.QuizAttempt{}).Error
}
