package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const fieldCompletedAt = "completedAt"

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// List godoc
// @Summary List progress records
// @Tags progresses
// @Produce  json
// @Security BearerAuth
// @Param lessonId query string false "Lesson filter"
// @Param studentId query string false "Student filter"
// @Param courseId query string false "Only lessons of this course"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/progresses [get]
func (c *ProgressController) List(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	filter := repository.ProgressFilter{
		LessonID:  ctx.Query("lessonId"),
		StudentID: ctx.Query("studentId"),
		CourseID:  ctx.Query("courseId"),
		Page:      page,
		Limit:     limit,
	}
	if owner, scoped := d.Scope(); scoped {
		filter.StudentID = owner
	}
	records, total, err := c.ProgressService.List(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, records, total, page, limit)
}

// Get godoc
// @Summary Get a progress record
// @Tags progresses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Progress ID"
// @Success 200 {object} util.Response{data=model.Progress}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/progresses/{id} [get]
func (c *ProgressController) Get(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	record, err := c.ProgressService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := checkOwner(d, record.StudentID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, record)
}

// Create godoc
// @Summary Start or complete a lesson
// @Description completedAt is set by the server when completed is true.
// @Tags progresses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.CreateProgressInput true "Progress"
// @Success 201 {object} util.Response{data=model.Progress}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response "Record exists for this lesson"
// @Router /api/progresses [post]
func (c *ProgressController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d, fieldCompletedAt)
	if !ok {
		return
	}
	if err := claimOwnership(d, p); err != nil {
		util.HandleError(ctx, err)
		return
	}
	record, err := c.ProgressService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, record)
}

// Update godoc
// @Summary Change completion
// @Tags progresses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Progress ID"
// @Param body body service.UpdateProgressInput true "Completion"
// @Success 200 {object} util.Response{data=model.Progress}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/progresses/{id} [patch]
func (c *ProgressController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !d.IsAny() {
		record, err := c.ProgressService.Get(ctx.Request.Context(), id)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		if err := checkOwner(d, record.StudentID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	p, ok := writePayload(ctx, d, fieldCompletedAt)
	if !ok {
		return
	}
	record, err := c.ProgressService.Update(ctx.Request.Context(), id, p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, record)
}

// Delete godoc
// @Summary Delete a progress record
// @Tags progresses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Progress ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/progresses/{id} [delete]
func (c *ProgressController) Delete(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !d.IsAny() {
		record, err := c.ProgressService.Get(ctx.Request.Context(), id)
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		if err := checkOwner(d, record.StudentID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	if err := c.ProgressService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
