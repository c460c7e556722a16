package repository

import (
	"context"
	"strings"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).Preload("Teacher").First(&course, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

type CourseFilter struct {
	TeacherID string
	Search    string
	// Columns restricts the loaded columns; nil loads the full row with its
	// teacher.
	Columns []string
	Page    int
	Limit   int
}

func (r *CourseRepository) List(ctx context.Context, f CourseFilter) ([]model.Course, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Course{})
	if f.TeacherID != "" {
		q = q.Where("teacher_id = ?", f.TeacherID)
	}
	if f.Search != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(f.Search)))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if len(f.Columns) > 0 {
		q = q.Select(f.Columns)
	} else {
		q = q.Preload("Teacher")
	}

	var courses []model.Course
	err := paginate(q, f.Page, f.Limit).Order("created_at ASC").Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, r.DB, &model.Course{}, id, fields)
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Course{}, id)
}

func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.DB, &model.Course{}, id)
}

// ClearTeacher detaches a teacher from all of their courses.
func (r *CourseRepository) ClearTeacher(ctx context.Context, teacherID string) error {
	return r.DB.WithContext(ctx).Model(&model.Course{}).
		Where("teacher_id = ?", teacherID).
		Update("teacher_id", nil).Error
}

func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Course{}).Count(&n).Error
	return n, err
}
