package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-relay/internal/pkg/presence/usecase"
)

// LastSeenController answers "is this user online, and if not, when were they
// last connected".
type LastSeenController struct {
	UC *usecase.LastSeenUseCase
}

func NewLastSeenController(uc *usecase.LastSeenUseCase) *LastSeenController {
	return &LastSeenController{UC: uc}
}

func (h *LastSeenController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, username)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp := gin.H{"username": out.Username, "online": out.Online}
		if out.LastSeen != nil {
			resp["last_seen"] = out.LastSeen
		}
		c.JSON(http.StatusOK, resp)
	}
}
