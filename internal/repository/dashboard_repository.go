package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// CountUsersWithRole counts users whose roles array contains role.
func (r *DashboardRepository) CountUsersWithRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("roles LIKE ?", `%"`+string(role)+`"%`).
		Count(&n).Error
	return n, err
}

func (r *DashboardRepository) CountQuizzes(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Quiz{}).Count(&n).Error
	return n, err
}

func (r *DashboardRepository) CountVideos(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Video{}).Count(&n).Error
	return n, err
}
