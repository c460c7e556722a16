package controller

import (
	"net/http"

	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// List godoc
// @Summary List users
// @Description Users with own access only see themselves.
// @Tags users
// @Produce  json
// @Security BearerAuth
// @Param search query string false "Matches username or email"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 403 {object} util.Response
// @Router /api/users [get]
func (c *UserController) List(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	page, limit := util.Pagination(ctx)
	filter := repository.UserFilter{Search: ctx.Query("search"), Page: page, Limit: limit}
	if owner, scoped := d.Scope(); scoped {
		filter.ID = owner
	}

	users, total, err := c.UserService.List(ctx.Request.Context(), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respondPage(ctx, users, total, page, limit)
}

// Get godoc
// @Summary Get a user
// @Tags users
// @Produce  json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [get]
func (c *UserController) Get(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := checkOwner(d, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	user, err := c.UserService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}

// Create godoc
// @Summary Create a user
// @Description The password is stored as a bcrypt hash. Without roles the user is a STUDENT.
// @Tags users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param body body service.CreateUserInput true "User"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/users [post]
func (c *UserController) Create(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	user, err := c.UserService.Create(ctx.Request.Context(), p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, user)
}

// Update godoc
// @Summary Update a user
// @Description Fields the caller may not write are dropped silently.
// @Tags users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [patch]
func (c *UserController) Update(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := checkOwner(d, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	p, ok := writePayload(ctx, d)
	if !ok {
		return
	}
	user, err := c.UserService.Update(ctx.Request.Context(), id, p)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete a user
// @Description Removes the user's enrollments, progress and attempts and detaches them from taught courses.
// @Tags users
// @Produce  json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [delete]
func (c *UserController) Delete(ctx *gin.Context) {
	d, ok := decisionOf(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if err := checkOwner(d, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.UserService.Delete(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
