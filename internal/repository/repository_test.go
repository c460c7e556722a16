package repository

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

type fixture struct {
	db      *gorm.DB
	student model.User
	teacher model.User
	course  model.Course
	lessons []model.Lesson
}

func newFixture(t *testing.T, lessonCount int) *fixture {
	t.Helper()
	db := testdb.SQLite(t)
	ctx := context.Background()

	f := &fixture{db: db}
	f.teacher = model.User{Username: "teacher", Password: "x", Roles: []string{string(model.RoleTeacher)}}
	f.student = model.User{Username: "student", Password: "x", Roles: []string{string(model.RoleStudent)}}
	require.NoError(t, NewUserRepository(db).Create(ctx, &f.teacher))
	require.NoError(t, NewUserRepository(db).Create(ctx, &f.student))

	f.course = model.Course{Title: strPtr("Web Dev"), TeacherID: &f.teacher.ID}
	require.NoError(t, NewCourseRepository(db).Create(ctx, &f.course))

	for i := 0; i < lessonCount; i++ {
		lesson := model.Lesson{Title: "Lesson", Type: model.LessonVideo, CourseID: f.course.ID, Position: i, Version: 1}
		require.NoError(t, NewLessonRepository(db).Create(ctx, &lesson))
		f.lessons = append(f.lessons, lesson)
	}
	return f
}

func TestCountByCourseIDsOmitsEmptyCourses(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	empty := model.Course{Title: strPtr("Empty")}
	require.NoError(t, NewCourseRepository(f.db).Create(ctx, &empty))

	counts, err := NewLessonRepository(f.db).CountByCourseIDs(ctx, []string{f.course.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[f.course.ID])
	_, ok := counts[empty.ID]
	assert.False(t, ok)
}

func TestCompletedCountsOnlyCountsCompletedProgress(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	progress := NewProgressRepository(f.db)

	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: f.lessons[0].ID, StudentID: f.student.ID, Completed: boolPtr(true)}))
	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: f.lessons[1].ID, StudentID: f.student.ID, Completed: boolPtr(true)}))
	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: f.lessons[2].ID, StudentID: f.student.ID, Completed: boolPtr(false)}))
	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: f.lessons[3].ID, StudentID: f.student.ID}))

	counts, err := progress.CompletedCounts(ctx, []string{f.course.ID}, []string{f.student.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[CourseStudent{CourseID: f.course.ID, StudentID: f.student.ID}])
}

func TestUpdateVersioned(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	lessons := NewLessonRepository(f.db)
	id := f.lessons[0].ID

	one := 1
	require.NoError(t, lessons.UpdateVersioned(ctx, id, &one, map[string]interface{}{"title": "Renamed"}))

	got, err := lessons.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 2, got.Version)

	err = lessons.UpdateVersioned(ctx, id, &one, map[string]interface{}{"title": "Stale"})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	err = lessons.UpdateVersioned(ctx, "missing", nil, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVideoPositionsAndDurations(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	videos := NewVideoRepository(f.db)
	lessonID := f.lessons[0].ID

	next, err := videos.NextPosition(ctx, lessonID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	require.NoError(t, videos.CreateAll(ctx, []model.Video{
		{Title: "b", URL: "https://cdn/b.mp4", Duration: 30, Position: 1, LessonID: lessonID},
		{Title: "a", URL: "https://cdn/a.mp4", Duration: 60, Position: 0, LessonID: lessonID},
	}))

	next, err = videos.NextPosition(ctx, lessonID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	durations, err := videos.Durations(ctx, lessonID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{30, 60}, durations)

	list, err := videos.ListByLesson(ctx, lessonID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Title)
}

func TestDeleteLessonChildren(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	target, other := f.lessons[0].ID, f.lessons[1].ID

	quiz := model.Quiz{Title: "Q", LessonID: target}
	require.NoError(t, NewQuizRepository(f.db).Create(ctx, &quiz))
	require.NoError(t, NewQuestionRepository(f.db).Create(ctx, &model.Question{QuizID: quiz.ID, Content: "?", Options: []string{"a", "b", "c", "d"}}))
	require.NoError(t, NewQuizAttemptRepository(f.db).Create(ctx, &model.QuizAttempt{QuizID: quiz.ID, StudentID: f.student.ID}))
	require.NoError(t, NewVideoRepository(f.db).Create(ctx, &model.Video{Title: "v", URL: "u", LessonID: target}))
	require.NoError(t, NewVideoRepository(f.db).Create(ctx, &model.Video{Title: "keep", URL: "u", LessonID: other}))
	require.NoError(t, NewProgressRepository(f.db).Create(ctx, &model.Progress{LessonID: target, StudentID: f.student.ID}))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return DeleteLessonChildren(ctx, tx, []string{target})
	})
	require.NoError(t, err)

	for _, m := range []interface{}{&model.Quiz{}, &model.Question{}, &model.QuizAttempt{}, &model.Progress{}} {
		var n int64
		require.NoError(t, f.db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T should be gone", m)
	}
	var videos int64
	require.NoError(t, f.db.Model(&model.Video{}).Count(&videos).Error)
	assert.Equal(t, int64(1), videos)

	found, err := NewLessonRepository(f.db).Exists(ctx, target)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUniqueEnrollment(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	enrollments := NewEnrollmentRepository(f.db)

	require.NoError(t, enrollments.Create(ctx, &model.Enrollment{CourseID: f.course.ID, StudentID: f.student.ID}))
	err := enrollments.Create(ctx, &model.Enrollment{CourseID: f.course.ID, StudentID: f.student.ID})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCountUsersWithRole(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	admin := model.User{Username: "admin", Password: "x", Roles: []string{string(model.RoleAdmin), string(model.RoleTeacher)}}
	require.NoError(t, NewUserRepository(f.db).Create(ctx, &admin))

	dash := NewDashboardRepository(f.db)
	teachers, err := dash.CountUsersWithRole(ctx, model.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, int64(2), teachers)

	students, err := dash.CountUsersWithRole(ctx, model.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), students)
}

func TestCourseListColumns(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	courses, total, err := NewCourseRepository(f.db).List(ctx, CourseFilter{Columns: []string{"id", "title"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, courses, 1)
	assert.Equal(t, "Web Dev", *courses[0].Title)
	assert.Nil(t, courses[0].TeacherID)
	assert.Nil(t, courses[0].Teacher)
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	courses := NewCourseRepository(f.db)
	for _, title := range []string{"100% Go", "1000 Go tips", "snake_case basics", "snakeXcase basics"} {
		require.NoError(t, courses.Create(ctx, &model.Course{Title: strPtr(title)}))
	}

	list, total, err := courses.List(ctx, CourseFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "100% Go", *list[0].Title)

	list, _, err = courses.List(ctx, CourseFilter{Search: "SNAKE_case"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "snake_case basics", *list[0].Title)

	users := NewUserRepository(f.db)
	require.NoError(t, users.Create(ctx, &model.User{Username: "a_b", Password: "x"}))
	require.NoError(t, users.Create(ctx, &model.User{Username: "axb", Password: "x"}))
	found, total, err := users.List(ctx, UserFilter{Search: "a_b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "a_b", found[0].Username)
}

func TestLockReturnsExistingLessons(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	err := f.db.Transaction(func(tx *gorm.DB) error {
		found, err := NewLessonRepository(tx).Lock(ctx, f.lessons[1].ID, "missing", f.lessons[0].ID)
		if err != nil {
			return err
		}
		assert.Equal(t, map[string]bool{f.lessons[0].ID: true, f.lessons[1].ID: true}, found)
		return nil
	})
	require.NoError(t, err)
}

func TestLockTakesRowLocksOnPostgres(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=lms dbname=lms sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var ids []string
	stmt := NewLessonRepository(db).lockQuery(context.Background(), []string{"b", "a"}).Pluck("id", &ids).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, sql, "ORDER BY id ASC")
}
