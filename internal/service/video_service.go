package service

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

// VideoService edits single videos. Every write recomputes the duration of
// the affected lessons in the same transaction.
type VideoService struct {
	DB         *gorm.DB
	VideoRepo  *repository.VideoRepository
	LessonRepo *repository.LessonRepository
	Lessons    *LessonService
}

func NewVideoService(db *gorm.DB, videoRepo *repository.VideoRepository, lessonRepo *repository.LessonRepository, lessons *LessonService) *VideoService {
	return &VideoService{
		DB:         db,
		VideoRepo:  videoRepo,
		LessonRepo: lessonRepo,
		Lessons:    lessons,
	}
}

type CreateVideoInput struct {
	Title    string `json:"title" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,max=1024"`
	Duration int    `json:"duration" binding:"min=0"`
	Position *int   `json:"position" binding:"omitempty,min=0"`
	LessonID string `json:"lessonId" binding:"required"`
}

type UpdateVideoInput struct {
	Title    *string `json:"title" binding:"omitempty,max=255"`
	URL      *string `json:"url" binding:"omitempty,max=1024"`
	Duration *int    `json:"duration" binding:"omitempty,min=0"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
	LessonID *string `json:"lessonId"`
}

func (s *VideoService) checkLesson(ctx context.Context, lessonID string) error {
	found, err := s.LessonRepo.Exists(ctx, lessonID)
	if err != nil {
		return err
	}
	if !found {
		return util.NewNotFoundError("lesson %s not found", lessonID)
	}
	return nil
}

func (s *VideoService) Create(ctx context.Context, p util.Payload) (*model.Video, error) {
	var in CreateVideoInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	if err := s.checkLesson(ctx, in.LessonID); err != nil {
		return nil, err
	}
	if s.Lessons != nil {
		probe := []VideoInput{{Title: in.Title, URL: in.URL, Duration: in.Duration}}
		s.Lessons.probe(ctx, probe)
		in.Duration = probe[0].Duration
	}

	video := &model.Video{
		Title:    in.Title,
		URL:      in.URL,
		Duration: in.Duration,
		LessonID: in.LessonID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLessons(ctx, tx, in.LessonID); err != nil {
			return err
		}
		videos := s.VideoRepo.WithTx(tx)
		if in.Position != nil {
			video.Position = *in.Position
		} else {
			next, err := videos.NextPosition(ctx, in.LessonID)
			if err != nil {
				return err
			}
			video.Position = next
		}
		if err := videos.Create(ctx, video); err != nil {
			return err
		}
		_, err := RecomputeDuration(ctx, tx, in.LessonID, nil, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (s *VideoService) Get(ctx context.Context, id string) (*model.Video, error) {
	video, err := s.VideoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "video %s not found", id)
	}
	return video, nil
}

func (s *VideoService) List(ctx context.Context, f repository.VideoFilter) ([]model.Video, int64, error) {
	return s.VideoRepo.List(ctx, f)
}

// Update patches a video. Moving it to another lesson recomputes both
// lessons.
func (s *VideoService) Update(ctx context.Context, id string, p util.Payload) (*model.Video, error) {
	var in UpdateVideoInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pt := newPatch(p)
	setRequired(pt, "title", "title", in.Title)
	setRequired(pt, "url", "url", in.URL)
	setRequired(pt, "duration", "duration", in.Duration)
	setRequired(pt, "position", "position", in.Position)
	setRequired(pt, "lessonId", "lesson_id", in.LessonID)
	if pt.err != nil {
		return nil, pt.err
	}
	if in.LessonID != nil && *in.LessonID != current.LessonID {
		if err := s.checkLesson(ctx, *in.LessonID); err != nil {
			return nil, err
		}
	}

	lessonIDs := []string{current.LessonID}
	if in.LessonID != nil && *in.LessonID != current.LessonID {
		lessonIDs = append(lessonIDs, *in.LessonID)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLessons(ctx, tx, lessonIDs...); err != nil {
			return err
		}
		if err := s.VideoRepo.WithTx(tx).UpdateFields(ctx, id, pt.fields); err != nil {
			return notFound(err, "video %s not found", id)
		}
		if _, err := RecomputeDuration(ctx, tx, current.LessonID, nil, nil); err != nil {
			return err
		}
		if in.LessonID != nil && *in.LessonID != current.LessonID {
			_, err := RecomputeDuration(ctx, tx, *in.LessonID, nil, nil)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *VideoService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLessons(ctx, tx, current.LessonID); err != nil {
			return err
		}
		if err := s.VideoRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFound(err, "video %s not found", id)
		}
		_, err := RecomputeDuration(ctx, tx, current.LessonID, nil, nil)
		return err
	})
}
