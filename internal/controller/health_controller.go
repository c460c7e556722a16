package controller

import (
	"context"
	"time"

	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/_health/live [get]
func (c *HealthController) Live(ctx *gin.Context) {
	util.Success(ctx, gin.H{"status": "ok"})
}

// @Summary Readiness probe
// @Description Checks the database connection.
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/_health/ready [get]
func (c *HealthController) Ready(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.ServiceUnavailable(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
		},
	})
}
