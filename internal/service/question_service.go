package service

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/datatypes"
)

// QuestionService manages multiple choice questions with exactly
// model.QuestionOptionCount options.
type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	QuizRepo     *repository.QuizRepository
}

func NewQuestionService(questionRepo *repository.QuestionRepository, quizRepo *repository.QuizRepository) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		QuizRepo:     quizRepo,
	}
}

type QuestionInput struct {
	QuizID        *string   `json:"quizId"`
	Content       *string   `json:"content" binding:"omitempty,min=1"`
	Options       *[]string `json:"options"`
	CorrectAnswer *int      `json:"correctAnswer"`
	Position      *int      `json:"position" binding:"omitempty,min=0"`
}

func validateOptions(options []string) error {
	if len(options) != model.QuestionOptionCount {
		return util.NewValidationError("a question needs exactly %d options, got %d", model.QuestionOptionCount, len(options))
	}
	return nil
}

func validateCorrectAnswer(answer int) error {
	if answer < 0 || answer >= model.QuestionOptionCount {
		return util.NewValidationError("correctAnswer must be within 0..%d", model.QuestionOptionCount-1)
	}
	return nil
}

func (s *QuestionService) checkQuiz(ctx context.Context, quizID string) error {
	found, err := s.QuizRepo.Exists(ctx, quizID)
	if err != nil {
		return err
	}
	if !found {
		return util.NewNotFoundError("quiz %s not found", quizID)
	}
	return nil
}

func (s *QuestionService) Create(ctx context.Context, p util.Payload) (*model.Question, error) {
	var in QuestionInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	switch {
	case in.QuizID == nil || *in.QuizID == "":
		return nil, util.NewValidationError("quizId is required")
	case in.Content == nil:
		return nil, util.NewValidationError("content is required")
	case in.Options == nil:
		return nil, util.NewValidationError("options are required")
	case in.CorrectAnswer == nil:
		return nil, util.NewValidationError("correctAnswer is required")
	}
	if err := validateOptions(*in.Options); err != nil {
		return nil, err
	}
	if err := validateCorrectAnswer(*in.CorrectAnswer); err != nil {
		return nil, err
	}
	if err := s.checkQuiz(ctx, *in.QuizID); err != nil {
		return nil, err
	}

	question := &model.Question{
		QuizID:        *in.QuizID,
		Content:       *in.Content,
		Options:       datatypes.JSONSlice[string](*in.Options),
		CorrectAnswer: *in.CorrectAnswer,
	}
	if in.Position != nil {
		question.Position = *in.Position
	} else {
		next, err := s.QuestionRepo.NextPosition(ctx, question.QuizID)
		if err != nil {
			return nil, err
		}
		question.Position = next
	}
	if err := s.QuestionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "question %s not found", id)
	}
	return question, nil
}

func (s *QuestionService) List(ctx context.Context, f repository.QuestionFilter) ([]model.Question, int64, error) {
	return s.QuestionRepo.List(ctx, f)
}

func (s *QuestionService) Update(ctx context.Context, id string, p util.Payload) (*model.Question, error) {
	var in QuestionInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}

	pt := newPatch(p)
	setRequired(pt, "quizId", "quiz_id", in.QuizID)
	setRequired(pt, "content", "content", in.Content)
	setRequired(pt, "correctAnswer", "correct_answer", in.CorrectAnswer)
	setRequired(pt, "position", "position", in.Position)
	if pt.err != nil {
		return nil, pt.err
	}
	if p.Has("options") {
		if in.Options == nil {
			return nil, util.NewValidationError("options must not be null")
		}
		if err := validateOptions(*in.Options); err != nil {
			return nil, err
		}
		pt.fields["options"] = datatypes.JSONSlice[string](*in.Options)
	}
	if in.CorrectAnswer != nil {
		if err := validateCorrectAnswer(*in.CorrectAnswer); err != nil {
			return nil, err
		}
	}
	if in.QuizID != nil {
		if err := s.checkQuiz(ctx, *in.QuizID); err != nil {
			return nil, err
		}
	}

	if err := s.QuestionRepo.UpdateFields(ctx, id, pt.fields); err != nil {
		return nil, notFound(err, "question %s not found", id)
	}
	return s.Get(ctx, id)
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.QuestionRepo.Delete(ctx, id); err != nil {
		return notFound(err, "question %s not found", id)
	}
	return nil
}
