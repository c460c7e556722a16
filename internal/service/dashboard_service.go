package service

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	DashboardRepo  *repository.DashboardRepository
	UserRepo       *repository.UserRepository
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewDashboardService(
	dashboardRepo *repository.DashboardRepository,
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *DashboardService {
	return &DashboardService{
		DashboardRepo:  dashboardRepo,
		UserRepo:       userRepo,
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

type Dashboard struct {
	Users       int64 `json:"users"`
	Students    int64 `json:"students"`
	Teachers    int64 `json:"teachers"`
	Courses     int64 `json:"courses"`
	Lessons     int64 `json:"lessons"`
	Videos      int64 `json:"videos"`
	Quizzes     int64 `json:"quizzes"`
	Enrollments int64 `json:"enrollments"`
}

// Counts runs the table counts concurrently. The first failure cancels the
// rest and no partial dashboard is returned.
func (s *DashboardService) Counts(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&d.Users, s.UserRepo.Count)
	count(&d.Courses, s.CourseRepo.Count)
	count(&d.Lessons, s.LessonRepo.Count)
	count(&d.Enrollments, s.EnrollmentRepo.Count)
	count(&d.Videos, s.DashboardRepo.CountVideos)
	count(&d.Quizzes, s.DashboardRepo.CountQuizzes)
	count(&d.Students, func(ctx context.Context) (int64, error) {
		return s.DashboardRepo.CountUsersWithRole(ctx, model.RoleStudent)
	})
	count(&d.Teachers, func(ctx context.Context) (int64, error) {
		return s.DashboardRepo.CountUsersWithRole(ctx, model.RoleTeacher)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
