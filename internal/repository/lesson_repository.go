package repository

import (
	"context"
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVersionMismatch means the lesson changed since the client read it.
var ErrVersionMismatch = errors.New("lesson version mismatch")

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) WithTx(tx *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: tx}
}

func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(lesson).Error
}

func (r *LessonRepository) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).
		Preload("Videos", orderByPosition).
		First(&lesson, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

type LessonFilter struct {
	CourseID string
	Page     int
	Limit    int
}

func (r *LessonRepository) List(ctx context.Context, f LessonFilter) ([]model.Lesson, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Lesson{})
	if f.CourseID != "" {
		q = q.Where("course_id = ?", f.CourseID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var lessons []model.Lesson
	err := paginate(q, f.Page, f.Limit).
		Preload("Videos", orderByPosition).
		Order("position ASC, created_at ASC").
		Find(&lessons).Error
	return lessons, total, err
}

// CountByCourseIDs counts lessons per course with one grouped query. Courses
// without lessons are absent from the map.
func (r *LessonRepository) CountByCourseIDs(ctx context.Context, courseIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}
	var rows []countRow
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Select("course_id AS group_key, COUNT(*) AS count").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.GroupKey] = row.Count
	}
	return counts, nil
}

func (r *LessonRepository) IDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error
	return ids, err
}

// NextPosition is one past the highest position in the course.
func (r *LessonRepository) NextPosition(ctx context.Context, courseID string) (int, error) {
	var last int
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&last).Error
	return last + 1, err
}

// UpdateVersioned writes fields and bumps the version. With an expected
// version the write only applies if nobody else changed the lesson first.
func (r *LessonRepository) UpdateVersioned(ctx context.Context, id string, expectedVersion *int, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	q := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("id = ?", id)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	found, err := exists(ctx, r.DB, &model.Lesson{}, id)
	if err != nil {
		return err
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	return ErrVersionMismatch
}

func (r *LessonRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.DB, &model.Lesson{}, id)
}

func (r *LessonRepository) lockQuery(ctx context.Context, ids []string) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Lesson{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC")
}

// Lock row-locks the given lessons until the surrounding transaction ends
// and returns the ids that exist. Rows are locked in id order. Every write
// to a lesson's video set takes this lock first.
func (r *LessonRepository) Lock(ctx context.Context, ids ...string) (map[string]bool, error) {
	var locked []string
	if err := r.lockQuery(ctx, ids).Pluck("id", &locked).Error; err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(locked))
	for _, id := range locked {
		found[id] = true
	}
	return found, nil
}

func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Lesson{}, id)
}

func (r *LessonRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Count(&n).Error
	return n, err
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}
