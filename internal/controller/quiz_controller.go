package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// List godoc
// @Summary List quizzes
// @Tags quizzes
// @Produce  json
// @Security BearerAuth
// @Param lessonId query string false "Lesson filter"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	quizzes, total, err := c.QuizService.List(ctx.Request.Context(), repository.QuizFilter{
		LessonID: ctx.Query("lessonId"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, quizzes, total, page, limit)
}

// Get godoc
// @Summary Get a quiz with its questions
// @Tags quizzes
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	quiz, err := c.QuizService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, quiz)
}

// Create godoc
// @Summary Create the quiz of a lesson
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.QuizInput true "Quiz"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "Unknown lesson"
// @Failure 409 {object} util.Response "Lesson already has a quiz"
// @Router /api/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	quiz, err := c.QuizService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, quiz)
}

// Update godoc
// @Summary Update a quiz
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body service.QuizInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quizzes/{id} [patch]
func (c *QuizController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	quiz, err := c.QuizService.Update(ctx.Request.Context(), ctx.Param("id"), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, quiz)
}

// Delete godoc
// @Summary Delete a quiz
// @Description Deletes the quiz with its questions and attempts.
// @Tags quizzes
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	id := ctx.Param("id")
	if err := c.QuizService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Submit godoc
// @Summary Submit quiz answers
// @Description Grades the answers for the caller and stores the attempt. The last question must be answered.
// @Tags quizzes
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param body body service.SubmitInput true "Answers by question index"
// @Success 201 {object} util.Response{data=model.QuizAttempt}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	var req service.SubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.QuizService.Submit(ctx.Request.Context(), ctx.Param("id"), d.ActorID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, attempt)
}

// Attempts godoc
// @Summary Attempts of a quiz
// @Description Students only see their own attempts.
// @Tags quizzes
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Quiz ID"
// @Param studentId query string false "Student filter"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/attempts [get]
func (c *QuizController) Attempts(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	filter := repository.QuizAttemptFilter{
		QuizID:    ctx.Param("id"),
		StudentID: ctx.Query("studentId"),
		Page:      page,
		Limit:     limit,
	}
	if owner, scoped := d.Scope(); scoped {
		filter.StudentID = owner
	}
	attempts, total, err := c.QuizService.Attempts(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, attempts, total, page, limit)
}
