package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-relay/internal/pkg/presence/usecase"
)

// StatsController reports message totals and the live connection count.
type StatsController struct {
	UC *usecase.StatsUseCase
}

func NewStatsController(uc *usecase.StatsUseCase) *StatsController {
	return &StatsController{UC: uc}
}

func (h *StatsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out := h.UC.Execute(ctx)
		c.JSON(http.StatusOK, gin.H{
			"total_messages": out.TotalMessages,
			"online":         out.Online,
			"degraded":       out.Degraded,
		})
	}
}
