package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) WithTx(tx *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: tx}
}

// Create fails with gorm.ErrDuplicatedKey when the student is already
// enrolled in the course.
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Preload("Student").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type EnrollmentFilter struct {
	CourseID  string
	StudentID string
	Page      int
	Limit     int
}

func (r *EnrollmentRepository) List(ctx context.Context, f EnrollmentFilter) ([]model.Enrollment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Enrollment{})
	if f.CourseID != "" {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []model.Enrollment
	err := paginate(q, f.Page, f.Limit).
		Preload("Course").
		Preload("Student").
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, total, err
}

func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Enrollment{}, id)
}

func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.DB.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Enrollment{}).Error
}

func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.DB.WithContext(ctx).Where("student_id = ?", studentID).Delete(&model.Enrollment{}).Error
}

func (r *EnrollmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Enrollment{}).Count(&n).Error
	return n, err
}
