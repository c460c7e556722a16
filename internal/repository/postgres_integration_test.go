//go:build testutil
// +build testutil

package repository

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// go test -tags testutil ./internal/repository -run Postgres
func TestPostgresConstraintsAndAggregates(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Postgres(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer h.Close()
	db := h.DB

	users := NewUserRepository(db)
	student := model.User{Username: "student", Password: "x", Roles: []string{string(model.RoleStudent)}}
	require.NoError(t, users.Create(ctx, &student))

	course := model.Course{Title: strPtr("Web Dev")}
	require.NoError(t, NewCourseRepository(db).Create(ctx, &course))

	lessons := NewLessonRepository(db)
	var ids []string
	for i := 0; i < 4; i++ {
		l := model.Lesson{Title: "L", Type: model.LessonVideo, CourseID: course.ID, Position: i, Version: 1}
		require.NoError(t, lessons.Create(ctx, &l))
		ids = append(ids, l.ID)
	}

	progress := NewProgressRepository(db)
	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: ids[0], StudentID: student.ID, Completed: boolPtr(true)}))
	require.NoError(t, progress.Create(ctx, &model.Progress{LessonID: ids[1], StudentID: student.ID, Completed: boolPtr(true)}))

	counts, err := progress.CompletedCounts(ctx, []string{course.ID}, []string{student.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[CourseStudent{CourseID: course.ID, StudentID: student.ID}])

	enrollments := NewEnrollmentRepository(db)
	require.NoError(t, enrollments.Create(ctx, &model.Enrollment{CourseID: course.ID, StudentID: student.ID}))
	err = enrollments.Create(ctx, &model.Enrollment{CourseID: course.ID, StudentID: student.ID})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	one := 1
	require.NoError(t, lessons.UpdateVersioned(ctx, ids[0], &one, map[string]interface{}{"duration": 90}))
	assert.ErrorIs(t, lessons.UpdateVersioned(ctx, ids[0], &one, nil), ErrVersionMismatch)
}
