package controller

import (
	"net/http"

	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// @Summary Admin dashboard
// @Description Row counts of the main tables.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Failure 403 {object} util.Response
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	if _, ok := decisionOf(ctx); !ok {
		return
	}
	dashboard, err := c.DashboardService.Counts(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dashboard)
}
