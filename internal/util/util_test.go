package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJSONContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestBindPayloadNormalizesRelationsAndSystemFields(t *testing.T) {
	c, _ := newJSONContext(`{
		"id": "client-id",
		"createdAt": "2020-01-01T00:00:00Z",
		"title": "Intro",
		"course": {"id": "c1"},
		"teacher": {"connect": {"id": "t1"}},
		"duration": 10
	}`)

	p, err := BindPayload(c)
	require.NoError(t, err)
	assert.False(t, p.Has("id"))
	assert.False(t, p.Has("createdAt"))
	assert.False(t, p.Has("course"))
	assert.Equal(t, "c1", p.String("courseId"))
	assert.Equal(t, "t1", p.String("teacherId"))
	assert.True(t, p.Has("duration"))

	p.Strip("duration")
	assert.False(t, p.Has("duration"))
}

func TestBindPayloadExplicitForeignKeyWins(t *testing.T) {
	c, _ := newJSONContext(`{"courseId": "c2", "course": {"id": "c1"}}`)
	p, err := BindPayload(c)
	require.NoError(t, err)
	assert.Equal(t, "c2", p.String("courseId"))
}

func TestBindPayloadRejectsNonObject(t *testing.T) {
	c, _ := newJSONContext(`[1,2,3]`)
	_, err := BindPayload(c)
	assert.Equal(t, KindValidation, KindOf(err))

	c, _ = newJSONContext(``)
	p, err := BindPayload(c)
	require.NoError(t, err)
	assert.Empty(t, p)
}

type sampleInput struct {
	Title    *string `json:"title" binding:"required"`
	Duration *int    `json:"duration" binding:"omitempty,min=0"`
}

func TestPayloadDecodeValidates(t *testing.T) {
	var in sampleInput
	require.NoError(t, Payload{"title": "a", "duration": 5}.Decode(&in))
	assert.Equal(t, "a", *in.Title)
	assert.Equal(t, 5, *in.Duration)

	err := Payload{"duration": 5}.Decode(&sampleInput{})
	assert.Equal(t, KindValidation, KindOf(err))

	err = Payload{"title": "a", "duration": -1}.Decode(&sampleInput{})
	assert.Equal(t, KindValidation, KindOf(err))

	err = Payload{"title": 12}.Decode(&sampleInput{})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{NewAuthorizationError("no"), KindAuthorization},
		{NewValidationError("bad"), KindValidation},
		{NewNotFoundError("gone"), KindNotFound},
		{NewConflictError("dup"), KindConflict},
		{fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound), KindNotFound},
		{gorm.ErrDuplicatedKey, KindConflict},
		{gorm.ErrForeignKeyViolated, KindNotFound},
		{ErrStaleVersion, KindConflict},
		{ErrInvalidCredentials, KindUnauthorized},
		{context.DeadlineExceeded, KindTransient},
		{WrapTransient(errors.New("boom")), KindTransient},
		{errors.New("UNIQUE constraint failed: enrollments.course_id"), KindConflict},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx"`), KindConflict},
		{errors.New("FOREIGN KEY constraint failed"), KindNotFound},
		{errors.New("dial tcp: connection refused"), KindTransient},
		{errors.New("sql: database is closed"), KindTransient},
		{errors.New("something else"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), tc.err.Error())
	}
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHandleErrorStatusCodes(t *testing.T) {
	cases := map[error]int{
		NewAuthorizationError("no"):       http.StatusForbidden,
		NewValidationError("bad"):         http.StatusBadRequest,
		gorm.ErrRecordNotFound:            http.StatusNotFound,
		gorm.ErrDuplicatedKey:             http.StatusConflict,
		WrapTransient(errors.New("down")): http.StatusServiceUnavailable,
		ErrInvalidCredentials:             http.StatusUnauthorized,
		errors.New("unexpected"):          http.StatusInternalServerError,
	}
	for err, status := range cases {
		c, w := newJSONContext(`{}`)
		HandleError(c, err)
		assert.Equal(t, status, w.Code, err.Error())
		assert.Contains(t, w.Body.String(), `"kind":"`)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{Username: "alice", Roles: []string{"STUDENT"}}
	user.ID = "u1"

	token, issued, err := GenerateJWT(user, "secret", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"STUDENT"}, claims.Roles)
	assert.Equal(t, issued.ID, claims.ID)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, _, err := GenerateJWT(user, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&limit=1000", nil)
	page, limit := Pagination(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxPageSize, limit)
}

func TestIfMatchVersion(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", nil)

	v, err := IfMatchVersion(c)
	require.NoError(t, err)
	assert.Nil(t, v)

	c.Request.Header.Set("If-Match", `"3"`)
	v, err = IfMatchVersion(c)
	require.NoError(t, err)
	assert.Equal(t, 3, *v)

	c.Request.Header.Set("If-Match", "abc")
	_, err = IfMatchVersion(c)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput(`{
		"streams": [{"codec_type": "audio"}, {"codec_type": "video", "width": 1280, "height": 720}],
		"format": {"duration": "61.6", "format_name": "mov,mp4"}
	}`)
	require.NoError(t, err)
	assert.Equal(t, 1280, info.Width)
	assert.Equal(t, 720, info.Height)
	assert.InDelta(t, 61.6, info.Duration, 0.001)

	_, err = parseProbeOutput(`{"format": {}}`)
	assert.Error(t, err)
}

func TestValidationMessagesHideDecoderDetails(t *testing.T) {
	c, w := newJSONContext(`{"title": `)
	_, err := BindPayload(c)
	require.Error(t, err)
	HandleError(c, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"invalid request body"`)
	assert.NotContains(t, w.Body.String(), "EOF")

	err = Payload{"title": 12}.Decode(&sampleInput{})
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "invalid value for field title", appErr.Public())
	assert.NotContains(t, appErr.Public(), "Go struct")

	err = Payload{"title": "a", "duration": -1}.Decode(&sampleInput{})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "field duration failed the min rule", appErr.Public())
}
