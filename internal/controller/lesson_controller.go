package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// Lesson duration is maintained by the server.
const fieldDuration = "duration"

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

// List godoc
// @Summary List lessons
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param courseId query string false "Only lessons of this course"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/lessons [get]
func (c *LessonController) List(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	lessons, total, err := c.LessonService.List(ctx.Request.Context(), repository.LessonFilter{
		CourseID: ctx.Query("courseId"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, lessons, total, page, limit)
}

// Get godoc
// @Summary Get a lesson with its videos
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *LessonController) Get(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	lesson, err := c.LessonService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lesson)
}

// Create godoc
// @Summary Create a lesson
// @Description videos may be {"deleteMany":{},"create":[...]} or a plain array. duration is computed from the videos.
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.LessonInput true "Lesson"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "Unknown course"
// @Router /api/lessons [post]
func (c *LessonController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d, fieldDuration)
	if !ok {
		return
	}
	lesson, err := c.LessonService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, lesson)
}

// Update godoc
// @Summary Update a lesson
// @Description A videos payload replaces (deleteMany) or appends (create only) in one transaction. Video ids change on replacement. Send version or If-Match to reject stale writes with 409.
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param If-Match header string false "Expected lesson version"
// @Param body body service.LessonInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Stale version"
// @Router /api/lessons/{id} [patch]
func (c *LessonController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	ifMatch, err := util.IfMatchVersion(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	p, ok := writePayload(ctx, d, fieldDuration)
	if !ok {
		return
	}
	lesson, err := c.LessonService.Update(ctx.Request.Context(), ctx.Param("id"), p, ifMatch)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Description Deletes the lesson with its videos, quiz and progress.
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [delete]
func (c *LessonController) Delete(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	id := ctx.Param("id")
	if err := c.LessonService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
