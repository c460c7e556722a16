package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) mustQuiz(t *testing.T, correct ...int) *model.Quiz {
	t.Helper()
	ctx := context.Background()
	c := h.mustCourse(t, "Web Dev")
	lesson := h.mustLesson(t, c.ID, `"type":"quiz"`)

	quiz, err := h.quizzes.Create(ctx, payload(t, `{"title":"Check","lessonId":"`+lesson.ID+`"}`))
	require.NoError(t, err)
	for _, answer := range correct {
		q := payload(t, `{"quizId":"`+quiz.ID+`","content":"?","options":["a","b","c","d"]}`)
		q["correctAnswer"] = answer
		_, err := h.questions.Create(ctx, q)
		require.NoError(t, err)
	}
	quiz, err = h.quizzes.Get(ctx, quiz.ID)
	require.NoError(t, err)
	return quiz
}

func TestQuizSubmitGradesAndRecordsAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quiz := h.mustQuiz(t, 0, 1, 2)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, 2, quiz.Questions[2].Position)

	attempt, err := h.quizzes.Submit(ctx, quiz.ID, h.student.ID, SubmitInput{
		Answers: map[int]int{0: 0, 1: 1, 2: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, attempt.Score)
	assert.Equal(t, 2, attempt.Correct)
	assert.Equal(t, 3, attempt.Total)
	assert.True(t, attempt.Passed)

	attempts, total, err := h.quizzes.Attempts(ctx, repository.QuizAttemptFilter{QuizID: quiz.ID, StudentID: h.student.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, attempts, 1)
	assert.Equal(t, map[int]int{0: 0, 1: 1, 2: 3}, attempts[0].Answers.Data())
}

func TestQuizSubmitBelowThresholdFails(t *testing.T) {
	h := newHarness(t)
	quiz := h.mustQuiz(t, 0, 1, 2)

	attempt, err := h.quizzes.Submit(context.Background(), quiz.ID, h.student.ID, SubmitInput{
		Answers: map[int]int{2: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 33, attempt.Score)
	assert.False(t, attempt.Passed)
}

func TestQuizSubmitRejectsInvalidAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quiz := h.mustQuiz(t, 0, 1)

	tests := map[string]map[int]int{
		"last unanswered":       {0: 0},
		"option out of range":   {0: 0, 1: 4},
		"question out of range": {0: 0, 1: 1, 5: 0},
	}
	for name, answers := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := h.quizzes.Submit(ctx, quiz.ID, h.student.ID, SubmitInput{Answers: answers})
			assert.Equal(t, util.KindValidation, util.KindOf(err))
		})
	}
	assert.Zero(t, h.count(t, &model.QuizAttempt{}))

	_, err := h.quizzes.Submit(ctx, "missing", h.student.ID, SubmitInput{Answers: map[int]int{}})
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestEmptyQuizNeverPasses(t *testing.T) {
	h := newHarness(t)
	quiz := h.mustQuiz(t)

	attempt, err := h.quizzes.Submit(context.Background(), quiz.ID, h.student.ID, SubmitInput{Answers: map[int]int{}})
	require.NoError(t, err)
	assert.Zero(t, attempt.Score)
	assert.False(t, attempt.Passed)
}

func TestOneQuizPerLesson(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quiz := h.mustQuiz(t)

	_, err := h.quizzes.Create(ctx, payload(t, `{"title":"Again","lessonId":"`+quiz.LessonID+`"}`))
	assert.Equal(t, util.KindConflict, util.KindOf(err))

	_, err = h.quizzes.Create(ctx, payload(t, `{"title":"Nowhere","lessonId":"missing"}`))
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestQuizDeleteRemovesQuestionsAndAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quiz := h.mustQuiz(t, 1)
	_, err := h.quizzes.Submit(ctx, quiz.ID, h.student.ID, SubmitInput{Answers: map[int]int{0: 1}})
	require.NoError(t, err)

	require.NoError(t, h.quizzes.Delete(ctx, quiz.ID))
	assert.Zero(t, h.count(t, &model.Question{}))
	assert.Zero(t, h.count(t, &model.QuizAttempt{}))

	err = h.quizzes.Delete(ctx, quiz.ID)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestQuestionValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	quiz := h.mustQuiz(t, 0)

	_, err := h.questions.Create(ctx, payload(t,
		`{"quizId":"`+quiz.ID+`","content":"?","options":["a","b","c"],"correctAnswer":0}`))
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = h.questions.Create(ctx, payload(t,
		`{"quizId":"`+quiz.ID+`","content":"?","options":["a","b","c","d"],"correctAnswer":4}`))
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = h.questions.Create(ctx, payload(t,
		`{"quizId":"missing","content":"?","options":["a","b","c","d"],"correctAnswer":0}`))
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	id := quiz.Questions[0].ID
	updated, err := h.questions.Update(ctx, id, payload(t, `{"options":["w","x","y","z"],"correctAnswer":2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"w", "x", "y", "z"}, []string(updated.Options))
	assert.Equal(t, 2, updated.CorrectAnswer)

	_, err = h.questions.Update(ctx, id, payload(t, `{"options":null}`))
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}
