package service

import (
	"context"
	"testing"

	"lms_backend/internal/aggregate"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseLessonCount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	none := h.mustCourse(t, "None")
	one := h.mustCourse(t, "One")
	many := h.mustCourse(t, "Many")
	h.mustLesson(t, one.ID, "")
	for i := 0; i < 3; i++ {
		h.mustLesson(t, many.ID, "")
	}

	got, err := h.courses.Get(ctx, many.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.LessonCount)

	sel := aggregate.ParseSelection("title,lessonCount", FieldLessonCount)
	courses, total, err := h.courses.List(ctx, repository.CourseFilter{}, sel)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	counts := map[string]int64{}
	for _, c := range courses {
		counts[c.ID] = c.LessonCount
	}
	assert.Equal(t, map[string]int64{none.ID: 0, one.ID: 1, many.ID: 3}, counts)
}

func TestCourseListSkipsUnrequestedLessonCount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.mustCourse(t, "Web Dev")
	h.mustLesson(t, c.ID, "")

	courses, _, err := h.courses.List(ctx, repository.CourseFilter{},
		aggregate.ParseSelection("title", FieldLessonCount))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Zero(t, courses[0].LessonCount)
	assert.Equal(t, "Web Dev", *courses[0].Title)

	_, _, err = h.courses.List(ctx, repository.CourseFilter{},
		aggregate.ParseSelection("title,bogus", FieldLessonCount))
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestCourseRejectsNonTeacherAndBadDates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.courses.Create(ctx, payload(t, `{"title":"X","teacherId":"`+h.student.ID+`"}`))
	assert.Equal(t, util.KindValidation, util.KindOf(err))

	_, err = h.courses.Create(ctx, payload(t, `{"title":"X","teacherId":"nobody"}`))
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	_, err = h.courses.Create(ctx, payload(t,
		`{"title":"X","startDate":"2024-02-01T00:00:00Z","endDate":"2024-01-01T00:00:00Z"}`))
	assert.Equal(t, util.KindValidation, util.KindOf(err))
}

func TestCourseUpdateClearsNullableFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.mustCourse(t, "Web Dev")

	updated, err := h.courses.Update(ctx, c.ID, payload(t, `{"description":"intro","teacherId":null}`))
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "intro", *updated.Description)
	assert.Nil(t, updated.TeacherID)
	assert.Equal(t, "Web Dev", *updated.Title)
}

func TestCourseDeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.mustCourse(t, "Web Dev")
	lesson := h.mustLesson(t, c.ID, `"videos":[{"title":"a","url":"https://cdn/a.mp4","duration":60}]`)
	h.complete(t, lesson.ID)
	_, err := h.enrollments.Create(ctx, payload(t, `{"courseId":"`+c.ID+`","studentId":"`+h.student.ID+`"}`))
	require.NoError(t, err)

	quiz, err := h.quizzes.Create(ctx, payload(t, `{"title":"Check","lessonId":"`+lesson.ID+`"}`))
	require.NoError(t, err)
	_, err = h.questions.Create(ctx, payload(t,
		`{"quizId":"`+quiz.ID+`","content":"2+2","options":["1","2","3","4"],"correctAnswer":3}`))
	require.NoError(t, err)
	_, err = h.quizzes.Submit(ctx, quiz.ID, h.student.ID, SubmitInput{Answers: map[int]int{0: 3}})
	require.NoError(t, err)

	require.NoError(t, h.courses.Delete(ctx, c.ID))

	for _, m := range []interface{}{
		&model.Course{}, &model.Lesson{}, &model.Video{}, &model.Enrollment{},
		&model.Progress{}, &model.Quiz{}, &model.Question{}, &model.QuizAttempt{},
	} {
		assert.Zero(t, h.count(t, m), "%T should be gone", m)
	}
	assert.Equal(t, int64(2), h.count(t, &model.User{}))

	err = h.courses.Delete(ctx, c.ID)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestCourseStatistics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.mustCourse(t, "Web Dev")
	var lessons []*model.Lesson
	for i := 0; i < 4; i++ {
		lessons = append(lessons, h.mustLesson(t, c.ID, ""))
	}
	other := h.mustUser(t, `{"username":"other","password":"secret1"}`)
	for _, id := range []string{h.student.ID, other.ID} {
		_, err := h.enrollments.Create(ctx, payload(t, `{"courseId":"`+c.ID+`","studentId":"`+id+`"}`))
		require.NoError(t, err)
	}
	for _, l := range lessons {
		h.complete(t, l.ID)
	}

	stats, err := h.courses.Statistics(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, aggregate.CourseStatistics{
		Enrollments:    2,
		AvgProgress:    50,
		CompletedCount: 1,
		CompletionRate: 50,
	}, *stats)

	_, err = h.courses.Statistics(ctx, "missing")
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestLessonCountFailureFailsCourseReads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.mustCourse(t, "Web Dev")
	h.mustLesson(t, c.ID, "")
	failGroupedReads(t, h.db, "lessons")

	got, err := h.courses.Get(ctx, c.ID)
	assert.Nil(t, got)
	assert.Equal(t, util.KindTransient, util.KindOf(err))

	courses, total, err := h.courses.List(ctx, repository.CourseFilter{}, aggregate.Selection{})
	assert.Nil(t, courses)
	assert.Zero(t, total)
	assert.Equal(t, util.KindTransient, util.KindOf(err))

	// no count query runs when lessonCount is not selected
	courses, _, err = h.courses.List(ctx, repository.CourseFilter{},
		aggregate.ParseSelection("title", FieldLessonCount))
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestProgressCountFailureFailsEnrollmentReads(t *testing.T) {
	for _, table := range []string{"lessons", "progresses"} {
		t.Run(table, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			c := h.mustCourse(t, "Web Dev")
			l := h.mustLesson(t, c.ID, "")
			_, err := h.enrollments.Create(ctx, payload(t, `{"courseId":"`+c.ID+`","studentId":"`+h.student.ID+`"}`))
			require.NoError(t, err)
			h.complete(t, l.ID)
			failGroupedReads(t, h.db, table)

			enrollments, total, err := h.enrollments.List(ctx, repository.EnrollmentFilter{CourseID: c.ID})
			assert.Nil(t, enrollments)
			assert.Zero(t, total)
			assert.Equal(t, util.KindTransient, util.KindOf(err))

			stats, err := h.courses.Statistics(ctx, c.ID)
			assert.Nil(t, stats)
			assert.Equal(t, util.KindTransient, util.KindOf(err))
		})
	}
}

func TestClosedStoreIsTransient(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c := h.mustCourse(t, "Web Dev")
	h.mustLesson(t, c.ID, "")
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = h.courses.List(ctx, repository.CourseFilter{}, aggregate.Selection{})
	assert.Equal(t, util.KindTransient, util.KindOf(err))

	_, err = h.courses.Get(ctx, c.ID)
	assert.Equal(t, util.KindTransient, util.KindOf(err))

	_, _, err = h.enrollments.List(ctx, repository.EnrollmentFilter{CourseID: c.ID})
	assert.Equal(t, util.KindTransient, util.KindOf(err))
}
