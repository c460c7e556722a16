package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoController struct {
	VideoService *service.VideoService
}

func NewVideoController(videoService *service.VideoService) *VideoController {
	return &VideoController{VideoService: videoService}
}

// List godoc
// @Summary List videos
// @Tags videos
// @Produce  json
// @Security BearerAuth
// @Param lessonId query string false "Only videos of this lesson"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/videos [get]
func (c *VideoController) List(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	videos, total, err := c.VideoService.List(ctx.Request.Context(), repository.VideoFilter{
		LessonID: ctx.Query("lessonId"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, videos, total, page, limit)
}

// Get godoc
// @Summary Get a video
// @Tags videos
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 200 {object} util.Response{data=model.Video}
// @Failure 404 {object} util.Response
// @Router /api/videos/{id} [get]
func (c *VideoController) Get(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	video, err := c.VideoService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, video)
}

// Create godoc
// @Summary Add a video to a lesson
// @Description The lesson duration is recomputed in the same transaction.
// @Tags videos
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.CreateVideoInput true "Video"
// @Success 201 {object} util.Response{data=model.Video}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "Unknown lesson"
// @Router /api/videos [post]
func (c *VideoController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	video, err := c.VideoService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, video)
}

// Update godoc
// @Summary Update a video
// @Tags videos
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Param body body service.UpdateVideoInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Video}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/videos/{id} [patch]
func (c *VideoController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	video, err := c.VideoService.Update(ctx.Request.Context(), ctx.Param("id"), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, video)
}

// Delete godoc
// @Summary Delete a video
// @Tags videos
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/videos/{id} [delete]
func (c *VideoController) Delete(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	id := ctx.Param("id")
	if err := c.VideoService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
