package service

import (
	"context"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

// ProgressService tracks lesson completion. completedAt is owned by the
// server: it is stamped when completed turns true and cleared otherwise.
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	LessonRepo   *repository.LessonRepository
	UserRepo     *repository.UserRepository
	now          func() time.Time
}

func NewProgressService(progressRepo *repository.ProgressRepository, lessonRepo *repository.LessonRepository, userRepo *repository.UserRepository) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		LessonRepo:   lessonRepo,
		UserRepo:     userRepo,
		now:          time.Now,
	}
}

type CreateProgressInput struct {
	LessonID  string `json:"lessonId" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
	Completed *bool  `json:"completed"`
}

type UpdateProgressInput struct {
	Completed *bool `json:"completed"`
}

func (s *ProgressService) completedAt(completed *bool) *time.Time {
	if completed == nil || !*completed {
		return nil
	}
	t := s.now()
	return &t
}

func (s *ProgressService) Create(ctx context.Context, p util.Payload) (*model.Progress, error) {
	var in CreateProgressInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	found, err := s.LessonRepo.Exists(ctx, in.LessonID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, util.NewNotFoundError("lesson %s not found", in.LessonID)
	}
	if _, err := s.UserRepo.FindByID(ctx, in.StudentID); err != nil {
		return nil, notFound(err, "student %s not found", in.StudentID)
	}

	record := &model.Progress{
		LessonID:    in.LessonID,
		StudentID:   in.StudentID,
		Completed:   in.Completed,
		CompletedAt: s.completedAt(in.Completed),
	}
	if err := s.ProgressRepo.Create(ctx, record); err != nil {
		return nil, duplicate(err, "progress for this lesson already exists")
	}
	return record, nil
}

func (s *ProgressService) Get(ctx context.Context, id string) (*model.Progress, error) {
	record, err := s.ProgressRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "progress %s not found", id)
	}
	return record, nil
}

func (s *ProgressService) List(ctx context.Context, f repository.ProgressFilter) ([]model.Progress, int64, error) {
	return s.ProgressRepo.List(ctx, f)
}

// Update only changes completion. A record that was already completed keeps
// its original completedAt.
func (s *ProgressService) Update(ctx context.Context, id string, p util.Payload) (*model.Progress, error) {
	var in UpdateProgressInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Has("completed") {
		return current, nil
	}

	pt := newPatch(p)
	setNullable(pt, "completed", "completed", in.Completed)
	fields := pt.fields
	wasDone := current.Completed != nil && *current.Completed
	isDone := in.Completed != nil && *in.Completed
	switch {
	case isDone && !wasDone:
		fields["completed_at"] = s.now()
	case !isDone:
		fields["completed_at"] = nil
	}
	if err := s.ProgressRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, notFound(err, "progress %s not found", id)
	}
	return s.Get(ctx, id)
}

func (s *ProgressService) Delete(ctx context.Context, id string) error {
	if err := s.ProgressRepo.Delete(ctx, id); err != nil {
		return notFound(err, "progress %s not found", id)
	}
	return nil
}
