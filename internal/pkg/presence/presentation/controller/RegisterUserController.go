package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	presence "go-relay/internal/pkg/presence/domain"
	"go-relay/internal/pkg/presence/usecase"
)

// RegisterUserController records a username via HTTP. Joining the live roster
// still happens over the socket.
type RegisterUserController struct {
	UC *usecase.RegisterUserUseCase
}

func NewRegisterUserController(uc *usecase.RegisterUserUseCase) *RegisterUserController {
	return &RegisterUserController{UC: uc}
}

type registerUserRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *RegisterUserController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.RegisterUserInput{Username: req.Username}); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusServiceUnavailable
			}
			if errors.Is(err, presence.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"username": req.Username})
	}
}
