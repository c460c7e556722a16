package service

import (
	"context"
	"errors"

	"lms_backend/internal/aggregate"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LessonService struct {
	DB         *gorm.DB
	LessonRepo *repository.LessonRepository
	VideoRepo  *repository.VideoRepository
	CourseRepo *repository.CourseRepository
	// Prober fills in durations of videos sent with duration 0. Nil disables
	// probing.
	Prober util.DurationProber
}

func NewLessonService(
	db *gorm.DB,
	lessonRepo *repository.LessonRepository,
	videoRepo *repository.VideoRepository,
	courseRepo *repository.CourseRepository,
	prober util.DurationProber,
) *LessonService {
	return &LessonService{
		DB:         db,
		LessonRepo: lessonRepo,
		VideoRepo:  videoRepo,
		CourseRepo: courseRepo,
		Prober:     prober,
	}
}

type LessonInput struct {
	Title    *string           `json:"title" binding:"omitempty,min=1,max=255"`
	Content  *string           `json:"content"`
	Type     *model.LessonType `json:"type"`
	CourseID *string           `json:"courseId"`
	Position *int              `json:"position" binding:"omitempty,min=0"`
	Version  *int              `json:"version"`
}

type VideoInput struct {
	Title    string `json:"title" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,max=1024"`
	Duration int    `json:"duration"`
}

// videoWrite is a parsed nested videos payload. Replace drops the current
// list before Create is inserted; otherwise Create is appended.
type videoWrite struct {
	Replace bool
	Create  []VideoInput
}

// parseVideoWrite accepts {"deleteMany": {}, "create": [...]}, {"create": [...]}
// or a bare array, which replaces like the first form.
func parseVideoWrite(raw interface{}) (*videoWrite, error) {
	var items interface{}
	w := &videoWrite{}
	switch v := raw.(type) {
	case nil:
		return &videoWrite{Replace: true}, nil
	case []interface{}:
		w.Replace = true
		items = v
	case map[string]interface{}:
		for key := range v {
			if key != "deleteMany" && key != "create" {
				return nil, util.NewValidationError("unsupported videos operation %q", key)
			}
		}
		_, w.Replace = v["deleteMany"]
		items = v["create"]
	default:
		return nil, util.NewValidationError("videos must be an array or an object")
	}

	if items == nil {
		return w, nil
	}
	var in struct {
		Videos []VideoInput `json:"videos" binding:"dive"`
	}
	if err := (util.Payload{"videos": items}).Decode(&in); err != nil {
		return nil, err
	}
	for _, video := range in.Videos {
		if video.Duration < 0 {
			return nil, util.WrapValidation(aggregate.ErrNegativeDuration)
		}
	}
	w.Create = in.Videos
	return w, nil
}

// probe fills zero durations before any transaction is opened. A failed
// probe leaves the duration at 0.
func (s *LessonService) probe(ctx context.Context, videos []VideoInput) {
	if s.Prober == nil {
		return
	}
	for i := range videos {
		if videos[i].Duration != 0 {
			continue
		}
		d, err := s.Prober.ProbeDuration(ctx, videos[i].URL)
		if err != nil {
			logger.Log.Warn("Video duration probe failed",
				zap.String("url", videos[i].URL), zap.Error(err))
			continue
		}
		videos[i].Duration = d
	}
}

// RecomputeDuration stores the sum of the lesson's current video durations
// on the lesson. It must run in the transaction that changed the videos.
func RecomputeDuration(ctx context.Context, tx *gorm.DB, lessonID string, expectedVersion *int, fields map[string]interface{}) (int, error) {
	durations, err := repository.NewVideoRepository(tx).Durations(ctx, lessonID)
	if err != nil {
		return 0, err
	}
	total, err := aggregate.LessonDuration(durations)
	if err != nil {
		return 0, util.WrapValidation(err)
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["duration"] = total
	err = repository.NewLessonRepository(tx).UpdateVersioned(ctx, lessonID, expectedVersion, fields)
	if errors.Is(err, repository.ErrVersionMismatch) {
		return 0, util.ErrStaleVersion
	}
	return total, err
}

// lockLessons takes the row lock of each lesson inside tx and fails with
// not found when one of them is missing.
func lockLessons(ctx context.Context, tx *gorm.DB, ids ...string) error {
	found, err := repository.NewLessonRepository(tx).Lock(ctx, ids...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !found[id] {
			return util.NewNotFoundError("lesson %s not found", id)
		}
	}
	return nil
}

// applyVideos writes a nested videos payload inside tx. New rows get fresh
// ids and consecutive positions.
func applyVideos(ctx context.Context, tx *gorm.DB, lessonID string, w *videoWrite) error {
	videos := repository.NewVideoRepository(tx)
	start := 0
	if w.Replace {
		if err := videos.DeleteByLesson(ctx, lessonID); err != nil {
			return err
		}
		monitoring.VideoReplacements.Inc()
	} else {
		next, err := videos.NextPosition(ctx, lessonID)
		if err != nil {
			return err
		}
		start = next
	}

	rows := make([]model.Video, len(w.Create))
	for i, in := range w.Create {
		rows[i] = model.Video{
			Title:    in.Title,
			URL:      in.URL,
			Duration: in.Duration,
			Position: start + i,
			LessonID: lessonID,
		}
	}
	return videos.CreateAll(ctx, rows)
}

func (s *LessonService) checkCourse(ctx context.Context, courseID string) error {
	found, err := s.CourseRepo.Exists(ctx, courseID)
	if err != nil {
		return err
	}
	if !found {
		return util.NewNotFoundError("course %s not found", courseID)
	}
	return nil
}

// Create inserts a lesson and, when given, its videos in one transaction.
func (s *LessonService) Create(ctx context.Context, p util.Payload) (*model.Lesson, error) {
	var write *videoWrite
	if raw, ok := p.Take("videos"); ok {
		w, err := parseVideoWrite(raw)
		if err != nil {
			return nil, err
		}
		write = w
	}
	var in LessonInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	if in.Title == nil || *in.Title == "" {
		return nil, util.NewValidationError("title is required")
	}
	if in.CourseID == nil || *in.CourseID == "" {
		return nil, util.NewValidationError("courseId is required")
	}
	lessonType := model.LessonVideo
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, util.NewValidationError("unknown lesson type %q", *in.Type)
		}
		lessonType = *in.Type
	}
	if err := s.checkCourse(ctx, *in.CourseID); err != nil {
		return nil, err
	}
	if write != nil {
		s.probe(ctx, write.Create)
	}

	lesson := &model.Lesson{
		Title:    *in.Title,
		Content:  in.Content,
		Type:     lessonType,
		CourseID: *in.CourseID,
		Version:  1,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessons := s.LessonRepo.WithTx(tx)
		if in.Position != nil {
			lesson.Position = *in.Position
		} else {
			next, err := lessons.NextPosition(ctx, lesson.CourseID)
			if err != nil {
				return err
			}
			lesson.Position = next
		}

		if write != nil {
			durations := make([]int, len(write.Create))
			for i, v := range write.Create {
				durations[i] = v.Duration
			}
			total, err := aggregate.LessonDuration(durations)
			if err != nil {
				return util.WrapValidation(err)
			}
			lesson.Duration = total
		}
		if err := lessons.Create(ctx, lesson); err != nil {
			return err
		}
		if write != nil {
			return applyVideos(ctx, tx, lesson.ID, write)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, lesson.ID)
}

func (s *LessonService) Get(ctx context.Context, id string) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "lesson %s not found", id)
	}
	return lesson, nil
}

func (s *LessonService) List(ctx context.Context, f repository.LessonFilter) ([]model.Lesson, int64, error) {
	return s.LessonRepo.List(ctx, f)
}

// Update patches scalar fields and applies a nested videos payload in one
// transaction, then recomputes duration and bumps the version. A version
// from the body, or else from If-Match, makes the write conditional.
func (s *LessonService) Update(ctx context.Context, id string, p util.Payload, ifMatch *int) (*model.Lesson, error) {
	var write *videoWrite
	if raw, ok := p.Take("videos"); ok {
		w, err := parseVideoWrite(raw)
		if err != nil {
			return nil, err
		}
		write = w
	}
	var in LessonInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	expected := ifMatch
	if in.Version != nil {
		expected = in.Version
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, util.NewValidationError("unknown lesson type %q", *in.Type)
	}
	if in.Title != nil && *in.Title == "" {
		return nil, util.NewValidationError("title must not be empty")
	}

	pt := newPatch(p)
	setRequired(pt, "title", "title", in.Title)
	setNullable(pt, "content", "content", in.Content)
	setRequired(pt, "type", "type", in.Type)
	setRequired(pt, "courseId", "course_id", in.CourseID)
	setRequired(pt, "position", "position", in.Position)
	if pt.err != nil {
		return nil, pt.err
	}
	if in.CourseID != nil {
		if err := s.checkCourse(ctx, *in.CourseID); err != nil {
			return nil, err
		}
	}
	if write != nil {
		s.probe(ctx, write.Create)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLessons(ctx, tx, id); err != nil {
			return err
		}
		if write != nil {
			if err := applyVideos(ctx, tx, id, write); err != nil {
				return err
			}
		}
		_, err := RecomputeDuration(ctx, tx, id, expected, pt.fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a lesson with its videos, quiz and progress records.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLessons(ctx, tx, id); err != nil {
			return err
		}
		if err := repository.DeleteLessonChildren(ctx, tx, []string{id}); err != nil {
			return err
		}
		if err := s.LessonRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFound(err, "lesson %s not found", id)
		}
		return nil
	})
}
