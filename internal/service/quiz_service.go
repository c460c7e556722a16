package service

import (
	"context"

	"lms_backend/internal/grading"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizService manages quizzes and grades submissions. A lesson has at most
// one quiz.
type QuizService struct {
	DB          *gorm.DB
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.QuizAttemptRepository
	LessonRepo  *repository.LessonRepository
	Policy      grading.Policy
}

func NewQuizService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	attemptRepo *repository.QuizAttemptRepository,
	lessonRepo *repository.LessonRepository,
	policy grading.Policy,
) *QuizService {
	return &QuizService{
		DB:          db,
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		LessonRepo:  lessonRepo,
		Policy:      policy,
	}
}

type QuizInput struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=255"`
	LessonID *string `json:"lessonId"`
}

type SubmitInput struct {
	// Answers maps question index to the chosen option index.
	Answers map[int]int `json:"answers" binding:"required"`
}

func (s *QuizService) checkLessonFree(ctx context.Context, lessonID string) error {
	found, err := s.LessonRepo.Exists(ctx, lessonID)
	if err != nil {
		return err
	}
	if !found {
		return util.NewNotFoundError("lesson %s not found", lessonID)
	}
	taken, err := s.QuizRepo.ExistsForLesson(ctx, lessonID)
	if err != nil {
		return err
	}
	if taken {
		return util.NewConflictError("lesson %s already has a quiz", lessonID)
	}
	return nil
}

func (s *QuizService) Create(ctx context.Context, p util.Payload) (*model.Quiz, error) {
	var in QuizInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	if in.Title == nil {
		return nil, util.NewValidationError("title is required")
	}
	if in.LessonID == nil || *in.LessonID == "" {
		return nil, util.NewValidationError("lessonId is required")
	}
	if err := s.checkLessonFree(ctx, *in.LessonID); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{Title: *in.Title, LessonID: *in.LessonID}
	if err := s.QuizRepo.Create(ctx, quiz); err != nil {
		return nil, duplicate(err, "lesson %s already has a quiz", quiz.LessonID)
	}
	return s.Get(ctx, quiz.ID)
}

// Get loads a quiz with its questions in order.
func (s *QuizService) Get(ctx context.Context, id string) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "quiz %s not found", id)
	}
	return quiz, nil
}

func (s *QuizService) List(ctx context.Context, f repository.QuizFilter) ([]model.Quiz, int64, error) {
	return s.QuizRepo.List(ctx, f)
}

func (s *QuizService) Update(ctx context.Context, id string, p util.Payload) (*model.Quiz, error) {
	var in QuizInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pt := newPatch(p)
	setRequired(pt, "title", "title", in.Title)
	setRequired(pt, "lessonId", "lesson_id", in.LessonID)
	if pt.err != nil {
		return nil, pt.err
	}
	if in.LessonID != nil && *in.LessonID != current.LessonID {
		if err := s.checkLessonFree(ctx, *in.LessonID); err != nil {
			return nil, err
		}
	}
	if err := s.QuizRepo.UpdateFields(ctx, id, pt.fields); err != nil {
		err = notFound(err, "quiz %s not found", id)
		return nil, duplicate(err, "lesson already has a quiz")
	}
	return s.Get(ctx, id)
}

// Delete removes a quiz with its questions and attempts.
func (s *QuizService) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.DeleteQuizChildren(ctx, tx, id); err != nil {
			return err
		}
		if err := repository.DeleteQuiz(ctx, tx, id); err != nil {
			return notFound(err, "quiz %s not found", id)
		}
		return nil
	})
}

// Submit grades answers for a student and stores the attempt. The answers
// go through the same attempt state machine a client walks: every answer
// must be in range and the last question must be answered.
func (s *QuizService) Submit(ctx context.Context, quizID, studentID string, in SubmitInput) (*model.QuizAttempt, error) {
	quiz, err := s.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}

	questions := make([]grading.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = grading.Question{Options: len(q.Options), CorrectAnswer: q.CorrectAnswer}
	}
	attempt := grading.NewAttempt(questions, s.Policy)
	for i, option := range in.Answers {
		if err := attempt.Answer(i, option); err != nil {
			return nil, util.WrapValidation(err)
		}
	}
	if attempt.Len() > 0 {
		if err := attempt.Goto(attempt.Len() - 1); err != nil {
			return nil, util.WrapValidation(err)
		}
	}
	result, err := attempt.Submit()
	if err != nil {
		return nil, util.WrapValidation(err)
	}

	record := &model.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   datatypes.NewJSONType(attempt.Answers()),
		Score:     result.Score,
		Correct:   result.Correct,
		Total:     result.Total,
		Passed:    result.Passed,
	}
	if err := s.AttemptRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	outcome := "failed"
	if result.Passed {
		outcome = "passed"
	}
	monitoring.QuizSubmissions.WithLabelValues(outcome).Inc()
	return record, nil
}

func (s *QuizService) Attempts(ctx context.Context, f repository.QuizAttemptFilter) ([]model.QuizAttempt, int64, error) {
	if f.QuizID != "" {
		found, err := s.QuizRepo.Exists(ctx, f.QuizID)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			return nil, 0, util.NewNotFoundError("quiz %s not found", f.QuizID)
		}
	}
	return s.AttemptRepo.List(ctx, f)
}
