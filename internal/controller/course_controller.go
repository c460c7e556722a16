package controller

import (
	"net/http"

	"lms_backend/internal/aggregate"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService     *service.CourseService
	LessonService     *service.LessonService
	EnrollmentService *service.EnrollmentService
}

func NewCourseController(courseService *service.CourseService, lessonService *service.LessonService, enrollmentService *service.EnrollmentService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		LessonService:     lessonService,
		EnrollmentService: enrollmentService,
	}
}

// List godoc
// @Summary List courses
// @Description Every course carries lessonCount unless a selection leaves it out.
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param select query string false "Comma separated fields, e.g. title,lessonCount"
// @Param teacherId query string false "Only courses of this teacher"
// @Param search query string false "Title contains"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 400 {object} util.Response "Unknown select field"
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	sel := aggregate.ParseSelection(ctx.Query("select"), service.FieldLessonCount)
	page, limit := util.Pagination(ctx)
	filter := repository.CourseFilter{
		TeacherID: ctx.Query("teacherId"),
		Search:    ctx.Query("search"),
		Page:      page,
		Limit:     limit,
	}
	if owner, scoped := d.Scope(); scoped {
		filter.TeacherID = owner
	}

	courses, total, err := c.CourseService.List(ctx.Request.Context(), filter, sel)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	rows := make([]interface{}, 0, len(courses))
	for i := range courses {
		v, err := util.ToJSONValue(courses[i])
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		row, _ := v.(map[string]interface{})
		rows = append(rows, sel.Project(row))
	}
	respondPage(ctx, rows, total, page, limit)
}

// Get godoc
// @Summary Get a course
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	course, err := c.CourseService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := checkOwnerPtr(d, course.TeacherID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, course)
}

// Create godoc
// @Summary Create a course
// @Description Teachers create courses for themselves; teacherId defaults to the caller.
// @Tags courses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.CourseInput true "Course"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d, service.FieldLessonCount)
	if !ok {
		return
	}
	if err := claimOwnership(d, p); err != nil {
		util.HandleError(ctx, err)
		return
	}
	course, err := c.CourseService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, course)
}

// Update godoc
// @Summary Update a course
// @Description Partial update. Fields the caller may not write are dropped silently; lessonCount is ignored.
// @Tags courses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param body body service.CourseInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [patch]
func (c *CourseController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !d.IsAny() {
		current, err := c.CourseService.Get(ctx.Request.Context(), id)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		if err := checkOwnerPtr(d, current.TeacherID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	p, ok := writePayload(ctx, d, service.FieldLessonCount)
	if !ok {
		return
	}
	course, err := c.CourseService.Update(ctx.Request.Context(), id, p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course
// @Description Deletes the course with its lessons, videos, quizzes, progress and enrollments.
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !d.IsAny() {
		current, err := c.CourseService.Get(ctx.Request.Context(), id)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		if err := checkOwnerPtr(d, current.TeacherID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	if err := c.CourseService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Lessons godoc
// @Summary Lessons of a course
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses/{id}/lessons [get]
func (c *CourseController) Lessons(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	lessons, total, err := c.LessonService.List(ctx.Request.Context(), repository.LessonFilter{
		CourseID: ctx.Param("id"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, lessons, total, page, limit)
}

// Enrollments godoc
// @Summary Enrollments of a course
// @Description Each enrollment carries the student's progress percent. Students only see their own.
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses/{id}/enrollments [get]
func (c *CourseController) Enrollments(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	filter := repository.EnrollmentFilter{CourseID: ctx.Param("id"), Page: page, Limit: limit}
	if owner, scoped := d.Scope(); scoped {
		filter.StudentID = owner
	}
	enrollments, total, err := c.EnrollmentService.List(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, enrollments, total, page, limit)
}

// Statistics godoc
// @Summary Course statistics
// @Description Enrollment count, average progress, completed count and completion rate.
// @Tags courses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} util.Response{data=aggregate.CourseStatistics}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/statistics [get]
func (c *CourseController) Statistics(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	stats, err := c.CourseService.Statistics(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, stats)
}
