package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// Create fails with gorm.ErrDuplicatedKey when the student already has a
// record for the lesson.
func (r *ProgressRepository) Create(ctx context.Context, p *model.Progress) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *ProgressRepository) FindByID(ctx context.Context, id string) (*model.Progress, error) {
	var p model.Progress
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type ProgressFilter struct {
	LessonID  string
	StudentID string
	CourseID  string
	Page      int
	Limit     int
}

func (r *ProgressRepository) List(ctx context.Context, f ProgressFilter) ([]model.Progress, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Progress{})
	if f.LessonID != "" {
		q = q.Where("lesson_id = ?", f.LessonID)
	}
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.CourseID != "" {
		q = q.Where("lesson_id IN (?)",
			r.DB.Model(&model.Lesson{}).Select("id").Where("course_id = ?", f.CourseID))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.Progress
	err := paginate(q, f.Page, f.Limit).Order("created_at ASC").Find(&records).Error
	return records, total, err
}

func (r *ProgressRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, r.DB, &model.Progress{}, id, fields)
}

func (r *ProgressRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Progress{}, id)
}

func (r *ProgressRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.DB.WithContext(ctx).Where("student_id = ?", studentID).Delete(&model.Progress{}).Error
}

// CourseStudent identifies one enrollment for progress aggregation.
type CourseStudent struct {
	CourseID  string
	StudentID string
}

type completedRow struct {
	CourseID  string
	StudentID string
	Count     int64
}

// CompletedCounts counts completed lessons per (course, student) with one
// grouped query. Pairs without completed lessons are absent.
func (r *ProgressRepository) CompletedCounts(ctx context.Context, courseIDs, studentIDs []string) (map[CourseStudent]int64, error) {
	counts := map[CourseStudent]int64{}
	if len(courseIDs) == 0 || len(studentIDs) == 0 {
		return counts, nil
	}
	var rows []completedRow
	err := r.DB.WithContext(ctx).
		Table("progresses").
		Select("lessons.course_id AS course_id, progresses.student_id AS student_id, COUNT(*) AS count").
		Joins("JOIN lessons ON lessons.id = progresses.lesson_id").
		Where("progresses.completed = ?", true).
		Where("lessons.course_id IN ?", courseIDs).
		Where("progresses.student_id IN ?", studentIDs).
		Group("lessons.course_id, progresses.student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[CourseStudent{CourseID: row.CourseID, StudentID: row.StudentID}] = row.Count
	}
	return counts, nil
}
