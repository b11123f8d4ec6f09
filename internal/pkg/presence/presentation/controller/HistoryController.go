package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	presence "go-relay/internal/pkg/presence/domain"
	"go-relay/internal/pkg/presence/usecase"
)

// HistoryController serves the message-history query (one controller per
// endpoint). The page size is capped server-side.
type HistoryController struct {
	UC       *usecase.GetHistoryUseCase
	PageSize int
}

func NewHistoryController(uc *usecase.GetHistoryUseCase, pageSize int) *HistoryController {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &HistoryController{UC: uc, PageSize: pageSize}
}

type historyMessage struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	Delivered bool       `json:"delivered"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func (h *HistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userA := c.Query("user1")
		userB := c.Query("user2")
		if userA == "" || userB == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user1 and user2 are required"})
			return
		}

		limit := h.PageSize
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.HistoryInput{UserA: userA, UserB: userB, Limit: limit})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, presence.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		messages := lo.Map(out.Messages, func(m presence.Message, _ int) historyMessage {
			return historyMessage{
				ID:        m.ID,
				Sender:    m.Sender,
				Receiver:  m.Receiver,
				Content:   m.Content,
				Timestamp: m.CreatedAt,
				Delivered: m.Delivered,
				Read:      m.Read,
				ReadAt:    m.ReadAt,
			}
		})

		c.JSON(http.StatusOK, gin.H{
			"messages": messages,
			"count":    len(messages),
			"limit":    limit,
			"degraded": out.Degraded,
		})
	}
}
