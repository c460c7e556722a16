package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// Enrollment progress is computed on read.
const fieldProgress = "progress"

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// List godoc
// @Summary List enrollments
// @Description Each enrollment carries the completion percent of its course. Students only see their own.
// @Tags enrollments
// @Produce  json
// @Security BearerAuth
// @Param courseId query string false "Course filter"
// @Param studentId query string false "Student filter"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/enrollments [get]
func (c *EnrollmentController) List(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	filter := repository.EnrollmentFilter{
		CourseID:  ctx.Query("courseId"),
		StudentID: ctx.Query("studentId"),
		Page:      page,
		Limit:     limit,
	}
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

// Get godoc
// @Summary Get an enrollment
// @Tags enrollments
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/enrollments/{id} [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	enrollment, err := c.EnrollmentService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := checkOwner(d, enrollment.StudentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, enrollment)
}

// Create godoc
// @Summary Enroll a student
// @Description Students can only enroll themselves; studentId defaults to the caller.
// @Tags enrollments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.EnrollmentInput true "Enrollment"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Already enrolled"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d, fieldProgress)
	if !ok {
		return
	}
	if err := claimOwnership(d, p); err != nil {
		util.HandleError(ctx, err)
		return
	}
	enrollment, err := c.EnrollmentService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, enrollment)
}

// Delete godoc
// @Summary Remove an enrollment
// @Tags enrollments
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/enrollments/{id} [delete]
func (c *EnrollmentController) Delete(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !d.IsAny() {
		enrollment, err := c.EnrollmentService.Get(ctx.Request.Context(), id)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		if err := checkOwner(d, enrollment.StudentID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	if err := c.EnrollmentService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
