package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// List godoc
// @Summary List questions
// @Tags questions
// @Produce  json
// @Security BearerAuth
// @Param quizId query string false "Quiz filter"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	questions, total, err := c.QuestionService.List(ctx.Request.Context(), repository.QuestionFilter{
		QuizID: ctx.Query("quizId"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, questions, total, page, limit)
}

// Get godoc
// @Summary Get a question
// @Tags questions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	question, err := c.QuestionService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, question)
}

// Create godoc
// @Summary Add a question to a quiz
// @Description Exactly four options; correctAnswer is the index of the right one.
// @Tags questions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.QuestionInput true "Question"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "Unknown quiz"
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	question, err := c.QuestionService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, question)
}

// Update godoc
// @Summary Update a question
// @Tags questions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Param body body service.QuestionInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [patch]
func (c *QuestionController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	question, err := c.QuestionService.Update(ctx.Request.Context(), ctx.Param("id"), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, question)
}

// Delete godoc
// @Summary Delete a question
// @Tags questions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	id := ctx.Param("id")
	if err := c.QuestionService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
