package usecase

import (
	"context"
	"log"

	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
)

// HistoryInput identifies a participant pair and the page bound.
type HistoryInput struct {
	UserA string
	UserB string
	Limit int
}

// HistoryOutput carries the page and whether the store answered. When the
// store is down the result is a well-formed empty page with Degraded set,
// never a failed request.
type HistoryOutput struct {
	Messages []presence.Message
	Degraded bool
}

// GetHistoryUseCase returns all messages exchanged between two users,
// timestamp ascending, capped at the page size.
type GetHistoryUseCase struct {
	Repo repository.MessageRepository
}

func NewGetHistoryUseCase(repo repository.MessageRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, in HistoryInput) (HistoryOutput, error) {
	if in.UserA == "" || in.UserB == "" {
		return HistoryOutput{}, presence.ErrInvalidInput
	}

	msgs, err := uc.Repo.GetConversation(ctx, in.UserA, in.UserB, in.Limit)
	if err != nil {
		log.Printf("history: %s/%s: %v", in.UserA, in.UserB, err)
		return HistoryOutput{Messages: []presence.Message{}, Degraded: true}, nil
	}
	if msgs == nil {
		msgs = []presence.Message{}
	}
	return HistoryOutput{Messages: msgs}, nil
}
