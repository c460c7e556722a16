package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type VideoRepository struct {
	DB *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: db}
}

func (r *VideoRepository) WithTx(tx *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: tx}
}

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.DB.WithContext(ctx).Create(video).Error
}

// CreateAll inserts videos in slice order.
func (r *VideoRepository) CreateAll(ctx context.Context, videos []model.Video) error {
	if len(videos) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&videos).Error
}

func (r *VideoRepository) FindByID(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video
	if err := r.DB.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

type VideoFilter struct {
	LessonID string
	Page     int
	Limit    int
}

func (r *VideoRepository) List(ctx context.Context, f VideoFilter) ([]model.Video, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Video{})
	if f.LessonID != "" {
		q = q.Where("lesson_id = ?", f.LessonID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.Video
	err := paginate(q, f.Page, f.Limit).Order("lesson_id ASC, position ASC, created_at ASC").Find(&videos).Error
	return videos, total, err
}

func (r *VideoRepository) ListByLesson(ctx context.Context, lessonID string) ([]model.Video, error) {
	var videos []model.Video
	err := r.DB.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("position ASC, created_at ASC").
		Find(&videos).Error
	return videos, err
}

// Durations returns the duration of every video of a lesson.
func (r *VideoRepository) Durations(ctx context.Context, lessonID string) ([]int, error) {
	var durations []int
	err := r.DB.WithContext(ctx).Model(&model.Video{}).
		Where("lesson_id = ?", lessonID).
		Pluck("duration", &durations).Error
	return durations, err
}

func (r *VideoRepository) NextPosition(ctx context.Context, lessonID string) (int, error) {
	var last int
	err := r.DB.WithContext(ctx).Model(&model.Video{}).
		Where("lesson_id = ?", lessonID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&last).Error
	return last + 1, err
}

func (r *VideoRepository) DeleteByLesson(ctx context.Context, lessonID string) error {
	return r.DB.WithContext(ctx).Where("lesson_id = ?", lessonID).Delete(&model.Video{}).Error
}

func (r *VideoRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, r.DB, &model.Video{}, id, fields)
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.DB, &model.Video{}, id)
}
