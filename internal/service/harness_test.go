package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/grading"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil/testdb"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db *gorm.DB

	auth        *AuthService
	users       *UserService
	courses     *CourseService
	lessons     *LessonService
	videos      *VideoService
	enrollments *EnrollmentService
	progress    *ProgressService
	quizzes     *QuizService
	questions   *QuestionService
	dashboard   *DashboardService

	teacher *model.User
	student *model.User
}

type fixedProber struct {
	seconds int
	calls   int
}

func (p *fixedProber) ProbeDuration(_ context.Context, _ string) (int, error) {
	p.calls++
	return p.seconds, nil
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithProber(t, nil)
}

func newHarnessWithProber(t *testing.T, prober util.DurationProber) *harness {
	t.Helper()
	db := testdb.SQLite(t)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}

	h := &harness{db: db}
	h.auth = NewAuthService(userRepo, NewMemoryTokenStore(), cfg)
	h.users = NewUserService(db, userRepo)
	h.courses = NewCourseService(db, courseRepo, lessonRepo, userRepo, enrollmentRepo, progressRepo)
	h.lessons = NewLessonService(db, lessonRepo, videoRepo, courseRepo, prober)
	h.videos = NewVideoService(db, videoRepo, lessonRepo, h.lessons)
	h.enrollments = NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, lessonRepo, progressRepo)
	h.progress = NewProgressService(progressRepo, lessonRepo, userRepo)
	h.quizzes = NewQuizService(db, quizRepo, attemptRepo, lessonRepo, grading.DefaultPolicy())
	h.questions = NewQuestionService(questionRepo, quizRepo)
	h.dashboard = NewDashboardService(repository.NewDashboardRepository(db), userRepo, courseRepo, lessonRepo, enrollmentRepo)

	h.teacher = h.mustUser(t, `{"username":"teacher","email":"teacher@example.com","password":"secret1","roles":["TEACHER"]}`)
	h.student = h.mustUser(t, `{"username":"student","email":"student@example.com","password":"secret1"}`)
	return h
}

// payload decodes a request body the way the controllers do.
func payload(t *testing.T, raw string) util.Payload {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var p util.Payload
	require.NoError(t, dec.Decode(&p))
	return p
}

func (h *harness) mustUser(t *testing.T, raw string) *model.User {
	t.Helper()
	u, err := h.users.Create(context.Background(), payload(t, raw))
	require.NoError(t, err)
	return u
}

func (h *harness) mustCourse(t *testing.T, title string) *model.Course {
	t.Helper()
	c, err := h.courses.Create(context.Background(), payload(t,
		`{"title":"`+title+`","teacherId":"`+h.teacher.ID+`"}`))
	require.NoError(t, err)
	return c
}

func (h *harness) mustLesson(t *testing.T, courseID, extra string) *model.Lesson {
	t.Helper()
	body := `{"title":"Lesson","courseId":"` + courseID + `"`
	if extra != "" {
		body += "," + extra
	}
	l, err := h.lessons.Create(context.Background(), payload(t, body+"}"))
	require.NoError(t, err)
	return l
}

func (h *harness) complete(t *testing.T, lessonID string) {
	t.Helper()
	_, err := h.progress.Create(context.Background(), payload(t,
		`{"lessonId":"`+lessonID+`","studentId":"`+h.student.ID+`","completed":true}`))
	require.NoError(t, err)
}

func (h *harness) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(m).Count(&n).Error)
	return n
}

// failGroupedReads makes every grouped read of table fail the way a closed
// connection pool does. Other reads keep working.
func failGroupedReads(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Row().Before("gorm:row").Register("test:fail_grouped_"+table, func(tx *gorm.DB) {
		if _, grouped := tx.Statement.Clauses["GROUP BY"]; grouped && tx.Statement.Table == table {
			_ = tx.AddError(errors.New("sql: database is closed"))
		}
	})
	require.NoError(t, err)
}
