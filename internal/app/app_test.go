package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/testutil/testdb"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	app     *App
	teacher *model.User
	student *model.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		JWT:       config.JWTConfig{Secret: "router-test-secret", ExpireTime: time.Hour},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		Quiz:      config.QuizConfig{PassThreshold: 50},
	}
	gin.SetMode(gin.TestMode)
	a := NewWithDeps(cfg, Deps{DB: testdb.SQLite(t)})

	s := &testServer{t: t, app: a}
	s.teacher = s.seedUser(`{"username":"teacher","email":"teacher@example.com","password":"secret1","roles":["TEACHER"]}`)
	s.student = s.seedUser(`{"username":"student","email":"student@example.com","password":"secret1"}`)
	return s
}

func (s *testServer) seedUser(body string) *model.User {
	var p util.Payload
	require.NoError(s.t, json.Unmarshal([]byte(body), &p))
	u, err := s.app.services.user.Create(context.Background(), p)
	require.NoError(s.t, err)
	return u
}

func (s *testServer) do(method, path, token string, body interface{}, headers ...string) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, code)
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(s.t, res.AccessToken)
	return res.AccessToken
}

func decode(t *testing.T, env envelope) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func (s *testServer) createCourse(token, title string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/courses", token, gin.H{"title": title})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	return decode(s.t, env)["id"].(string)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodPost, "/api/login", "", gin.H{"email": "student@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", env.Kind)

	code, _ = s.do(http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestTeacherCreatesOwnCourse(t *testing.T) {
	s := newTestServer(t)
	teacher := s.login("teacher@example.com")

	code, env := s.do(http.MethodPost, "/api/courses", teacher, gin.H{"title": "Web Dev", "lessonCount": 99})
	require.Equal(t, http.StatusCreated, code)
	course := decode(t, env)
	assert.Equal(t, s.teacher.ID, course["teacherId"])
	assert.EqualValues(t, 0, course["lessonCount"])

	other := s.seedUser(`{"username":"other","password":"secret1","roles":["TEACHER"]}`)
	code, env = s.do(http.MethodPost, "/api/courses", teacher, gin.H{"title": "Hijack", "teacherId": other.ID})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "authorization", env.Kind)
}

func TestStudentCannotWriteCourses(t *testing.T) {
	s := newTestServer(t)
	student := s.login("student@example.com")

	code, env := s.do(http.MethodPost, "/api/courses", student, gin.H{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "authorization", env.Kind)
	assert.Zero(t, countRows(t, s, &model.Course{}))
}

func TestStudentCourseProjectionHidesTeacherEmail(t *testing.T) {
	s := newTestServer(t)
	id := s.createCourse(s.login("teacher@example.com"), "Web Dev")
	student := s.login("student@example.com")

	code, env := s.do(http.MethodGet, "/api/courses/"+id, student, nil)
	require.Equal(t, http.StatusOK, code)
	course := decode(t, env)
	teacher, ok := course["teacher"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "teacher", teacher["username"])
	assert.NotContains(t, teacher, "email")
	assert.NotContains(t, teacher, "roles")
}

func TestCourseListSelection(t *testing.T) {
	s := newTestServer(t)
	teacher := s.login("teacher@example.com")
	id := s.createCourse(teacher, "Web Dev")
	code, _ := s.do(http.MethodPost, "/api/lessons", teacher, gin.H{"title": "Intro", "courseId": id})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(http.MethodGet, "/api/courses?select=title,lessonCount", teacher, nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		List  []map[string]interface{} `json:"list"`
		Total int64                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, map[string]interface{}{"title": "Web Dev", "lessonCount": float64(1)}, page.List[0])
}

func TestRoleFilteredWritePersistsOnlyAllowedFields(t *testing.T) {
	s := newTestServer(t)
	student := s.login("student@example.com")

	code, env := s.do(http.MethodPatch, "/api/users/"+s.student.ID, student,
		gin.H{"firstName": "Sam", "roles": []string{"ADMIN"}, "username": "root"})
	require.Equal(t, http.StatusOK, code, env.Message)

	stored, err := s.app.services.user.Get(context.Background(), s.student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FirstName)
	assert.Equal(t, "Sam", *stored.FirstName)
	assert.Equal(t, []string{"STUDENT"}, []string(stored.Roles))
	assert.Equal(t, "student", stored.Username)

	code, _ = s.do(http.MethodPatch, "/api/users/"+s.teacher.ID, student, gin.H{"firstName": "X"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestLessonUpdateOverHTTP(t *testing.T) {
	s := newTestServer(t)
	teacher := s.login("teacher@example.com")
	courseID := s.createCourse(teacher, "Web Dev")
	otherCourse := s.createCourse(teacher, "Other")

	code, env := s.do(http.MethodPost, "/api/lessons", teacher, gin.H{
		"title":    "Intro",
		"courseId": courseID,
		"videos":   []gin.H{{"title": "a", "url": "https://cdn/a.mp4", "duration": 100}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	lesson := decode(t, env)
	id := lesson["id"].(string)

	code, env = s.do(http.MethodPatch, "/api/lessons/"+id, teacher, gin.H{
		"title":    "Renamed",
		"courseId": otherCourse,
		"duration": 1,
		"videos": gin.H{
			"deleteMany": gin.H{},
			"create":     []gin.H{{"title": "b", "url": "https://cdn/b.mp4", "duration": 45}},
		},
	}, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, code, env.Message)
	updated := decode(t, env)
	assert.Equal(t, "Renamed", updated["title"])
	assert.Equal(t, courseID, updated["courseId"])
	assert.EqualValues(t, 45, updated["duration"])
	assert.EqualValues(t, 2, updated["version"])

	code, env = s.do(http.MethodPatch, "/api/lessons/"+id, teacher, gin.H{"title": "Late"}, "If-Match", "1")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Kind)
}

func TestStudentEnrollsThemself(t *testing.T) {
	s := newTestServer(t)
	courseID := s.createCourse(s.login("teacher@example.com"), "Web Dev")
	student := s.login("student@example.com")

	code, env := s.do(http.MethodPost, "/api/enrollments", student, gin.H{"courseId": courseID})
	require.Equal(t, http.StatusCreated, code, env.Message)
	enrollment := decode(t, env)
	assert.Equal(t, s.student.ID, enrollment["studentId"])
	assert.EqualValues(t, 0, enrollment["progress"])

	code, env = s.do(http.MethodPost, "/api/enrollments", student, gin.H{"courseId": courseID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", env.Kind)

	code, env = s.do(http.MethodGet, "/api/enrollments", student, nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login("student@example.com")

	code, _ := s.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodGet, "/api/_health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/_health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Kind)
}

func countRows(t *testing.T, s *testServer, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.app.DB.Model(m).Count(&n).Error)
	return n
}
