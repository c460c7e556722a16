package service

import (
	"context"

	"lms_backend/internal/aggregate"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	UserRepo       *repository.UserRepository
	LessonRepo     *repository.LessonRepository
	ProgressRepo   *repository.ProgressRepository
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	lessonRepo *repository.LessonRepository,
	progressRepo *repository.ProgressRepository,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		UserRepo:       userRepo,
		LessonRepo:     lessonRepo,
		ProgressRepo:   progressRepo,
	}
}

type EnrollmentInput struct {
	CourseID  string `json:"courseId" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
}

// attachProgress fills Enrollment.Progress with two grouped queries however
// many enrollments there are. Any failing query fails the whole read.
func attachProgress(ctx context.Context, lessons *repository.LessonRepository, progress *repository.ProgressRepository, enrollments []model.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	courseIDs := make([]string, 0, len(enrollments))
	studentIDs := make([]string, 0, len(enrollments))
	seenCourse, seenStudent := map[string]bool{}, map[string]bool{}
	for _, e := range enrollments {
		if !seenCourse[e.CourseID] {
			seenCourse[e.CourseID] = true
			courseIDs = append(courseIDs, e.CourseID)
		}
		if !seenStudent[e.StudentID] {
			seenStudent[e.StudentID] = true
			studentIDs = append(studentIDs, e.StudentID)
		}
	}

	totals, err := lessons.CountByCourseIDs(ctx, courseIDs)
	if err != nil {
		return storeFailure(err)
	}
	completed, err := progress.CompletedCounts(ctx, courseIDs, studentIDs)
	if err != nil {
		return storeFailure(err)
	}
	for i := range enrollments {
		e := &enrollments[i]
		done := completed[repository.CourseStudent{CourseID: e.CourseID, StudentID: e.StudentID}]
		e.Progress = aggregate.ProgressPercent(done, totals[e.CourseID])
	}
	return nil
}

func (s *EnrollmentService) Create(ctx context.Context, p util.Payload) (*model.Enrollment, error) {
	var in EnrollmentInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	found, err := s.CourseRepo.Exists(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, util.NewNotFoundError("course %s not found", in.CourseID)
	}
	if _, err := s.UserRepo.FindByID(ctx, in.StudentID); err != nil {
		return nil, notFound(err, "student %s not found", in.StudentID)
	}

	enrollment := &model.Enrollment{CourseID: in.CourseID, StudentID: in.StudentID}
	if err := s.EnrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, duplicate(err, "student is already enrolled in this course")
	}
	return s.Get(ctx, enrollment.ID)
}

func (s *EnrollmentService) Get(ctx context.Context, id string) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "enrollment %s not found", id)
	}
	list := []model.Enrollment{*enrollment}
	if err := attachProgress(ctx, s.LessonRepo, s.ProgressRepo, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *EnrollmentService) List(ctx context.Context, f repository.EnrollmentFilter) ([]model.Enrollment, int64, error) {
	enrollments, total, err := s.EnrollmentRepo.List(ctx, f)
	if err != nil {
		return nil, 0, storeFailure(err)
	}
	if err := attachProgress(ctx, s.LessonRepo, s.ProgressRepo, enrollments); err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if err := s.EnrollmentRepo.Delete(ctx, id); err != nil {
		return notFound(err, "enrollment %s not found", id)
	}
	return nil
}
