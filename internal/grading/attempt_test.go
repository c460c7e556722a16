package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []Question {
	return []Question{
		{Options: 4, CorrectAnswer: 0},
		{Options: 4, CorrectAnswer: 1},
		{Options: 4, CorrectAnswer: 2},
	}
}

func TestScore(t *testing.T) {
	score, correct := Score([]int{0, 1, 2}, map[int]int{0: 0, 1: 3, 2: 2})
	assert.Equal(t, 67, score)
	assert.Equal(t, 2, correct)

	score, correct = Score([]int{0, 1, 2}, map[int]int{})
	assert.Equal(t, 0, score)
	assert.Equal(t, 0, correct)

	score, _ = Score(nil, nil)
	assert.Equal(t, 0, score)
}

func TestGradeThreshold(t *testing.T) {
	half := Policy{PassThreshold: 50}.Grade([]int{0, 1}, map[int]int{0: 0})
	assert.Equal(t, Result{Score: 50, Correct: 1, Total: 2, Passed: true}, half)

	strict := Policy{PassThreshold: 80}.Grade([]int{0, 1, 2}, map[int]int{0: 0, 1: 1})
	assert.Equal(t, 67, strict.Score)
	assert.False(t, strict.Passed)

	empty := DefaultPolicy().Grade(nil, nil)
	assert.Equal(t, Result{}, empty)
}

func TestAttemptFlow(t *testing.T) {
	a := NewAttempt(threeQuestions(), DefaultPolicy())
	require.Equal(t, 3, a.Len())

	require.NoError(t, a.Answer(0, 2))
	require.NoError(t, a.Answer(0, 0))
	require.NoError(t, a.Next())
	require.NoError(t, a.Answer(1, 3))
	require.NoError(t, a.Next())
	require.NoError(t, a.Answer(2, 2))

	res, err := a.Submit()
	require.NoError(t, err)
	assert.Equal(t, Result{Score: 67, Correct: 2, Total: 3, Passed: true}, res)
	assert.True(t, a.Submitted())
	assert.Equal(t, []int{0, 1, 2}, a.Answered())

	got, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestAnswerAfterSubmitIsRejected(t *testing.T) {
	a := NewAttempt(threeQuestions(), DefaultPolicy())
	require.NoError(t, a.Goto(2))
	require.NoError(t, a.Answer(2, 2))
	_, err := a.Submit()
	require.NoError(t, err)

	assert.ErrorIs(t, a.Answer(0, 0), ErrSubmitted)
	assert.ErrorIs(t, a.Goto(0), ErrSubmitted)
	_, err = a.Submit()
	assert.ErrorIs(t, err, ErrSubmitted)
	assert.Equal(t, map[int]int{2: 2}, a.Answers())
}

func TestSubmitRequiresLastAnswered(t *testing.T) {
	a := NewAttempt(threeQuestions(), DefaultPolicy())
	require.NoError(t, a.Answer(0, 0))
	require.NoError(t, a.Answer(1, 1))

	_, err := a.Submit()
	assert.ErrorIs(t, err, ErrNotOnLastQuestion)

	require.NoError(t, a.Goto(2))
	_, err = a.Submit()
	assert.ErrorIs(t, err, ErrLastUnanswered)
	assert.False(t, a.Submitted())

	_, err = a.Result()
	assert.ErrorIs(t, err, ErrNotSubmitted)
}

func TestAnswerBounds(t *testing.T) {
	a := NewAttempt(threeQuestions(), DefaultPolicy())
	assert.ErrorIs(t, a.Answer(3, 0), ErrQuestionOutOfRange)
	assert.ErrorIs(t, a.Answer(-1, 0), ErrQuestionOutOfRange)
	assert.ErrorIs(t, a.Answer(0, 4), ErrOptionOutOfRange)
	assert.ErrorIs(t, a.Answer(0, -1), ErrOptionOutOfRange)
	assert.ErrorIs(t, a.Prev(), ErrQuestionOutOfRange)
}

func TestEmptyQuizScoresZero(t *testing.T) {
	a := NewAttempt(nil, DefaultPolicy())
	res, err := a.Submit()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.False(t, res.Passed)
}
