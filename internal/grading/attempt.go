// Package grading holds the quiz attempt state machine and scoring rules.
package grading

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrSubmitted          = errors.New("attempt already submitted")
	ErrNotSubmitted       = errors.New("attempt not submitted")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrNotOnLastQuestion  = errors.New("submit is only allowed on the last question")
	ErrLastUnanswered     = errors.New("the last question must be answered before submit")
)

// DefaultPassThreshold is the percent a score must reach to pass.
const DefaultPassThreshold = 50

// Policy holds the grading rules that are configuration rather than logic.
type Policy struct {
	PassThreshold int
}

func DefaultPolicy() Policy {
	return Policy{PassThreshold: DefaultPassThreshold}
}

// Question is what grading needs to know about a question.
type Question struct {
	Options       int
	CorrectAnswer int
}

type Result struct {
	Score   int  `json:"score"`
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Passed  bool `json:"passed"`
}

// Score compares answers against the correct option of each question.
// Unanswered questions count as incorrect.
func Score(correct []int, answers map[int]int) (score, correctCount int) {
	for i, want := range correct {
		if got, ok := answers[i]; ok && got == want {
			correctCount++
		}
	}
	if len(correct) == 0 {
		return 0, 0
	}
	return int(math.Round(100 * float64(correctCount) / float64(len(correct)))), correctCount
}

// Grade scores answers and applies the pass threshold.
func (p Policy) Grade(correct []int, answers map[int]int) Result {
	score, n := Score(correct, answers)
	return Result{
		Score:   score,
		Correct: n,
		Total:   len(correct),
		Passed:  len(correct) > 0 && score >= p.PassThreshold,
	}
}

// Attempt walks a fixed, ordered question set. Answers may be changed freely
// until Submit, after which the attempt is frozen.
type Attempt struct {
	questions []Question
	policy    Policy
	current   int
	answers   map[int]int
	submitted bool
	result    Result
}

func NewAttempt(questions []Question, policy Policy) *Attempt {
	return &Attempt{
		questions: append([]Question(nil), questions...),
		policy:    policy,
		answers:   map[int]int{},
	}
}

func (a *Attempt) Len() int {
	return len(a.questions)
}

func (a *Attempt) Current() int {
	return a.current
}

func (a *Attempt) Submitted() bool {
	return a.submitted
}

// Answer records the option chosen for question i. The last choice wins.
func (a *Attempt) Answer(i, option int) error {
	if a.submitted {
		return ErrSubmitted
	}
	if i < 0 || i >= len(a.questions) {
		return ErrQuestionOutOfRange
	}
	if n := a.questions[i].Options; option < 0 || (n > 0 && option >= n) {
		return ErrOptionOutOfRange
	}
	a.answers[i] = option
	return nil
}

// Answers returns a copy of the answers given so far.
func (a *Attempt) Answers() map[int]int {
	out := make(map[int]int, len(a.answers))
	for k, v := range a.answers {
		out[k] = v
	}
	return out
}

// Answered lists the answered question indexes in order.
func (a *Attempt) Answered() []int {
	out := make([]int, 0, len(a.answers))
	for k := range a.answers {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (a *Attempt) Goto(i int) error {
	if a.submitted {
		return ErrSubmitted
	}
	if i < 0 || i >= len(a.questions) {
		return ErrQuestionOutOfRange
	}
	a.current = i
	return nil
}

func (a *Attempt) Next() error {
	return a.Goto(a.current + 1)
}

func (a *Attempt) Prev() error {
	return a.Goto(a.current - 1)
}

// Submit grades the attempt. It is only accepted on the last question once
// that question has an answer. An empty quiz can be submitted directly.
func (a *Attempt) Submit() (Result, error) {
	if a.submitted {
		return Result{}, ErrSubmitted
	}
	if n := len(a.questions); n > 0 {
		if a.current != n-1 {
			return Result{}, ErrNotOnLastQuestion
		}
		if _, ok := a.answers[n-1]; !ok {
			return Result{}, ErrLastUnanswered
		}
	}

	correct := make([]int, len(a.questions))
	for i, q := range a.questions {
		correct[i] = q.CorrectAnswer
	}
	a.result = a.policy.Grade(correct, a.answers)
	a.submitted = true
	return a.result, nil
}

func (a *Attempt) Result() (Result, error) {
	if !a.submitted {
		return Result{}, ErrNotSubmitted
	}
	return a.result, nil
}
