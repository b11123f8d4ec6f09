package usecase

import (
	"context"
	"fmt"
	"strings"

	presence "go-relay/internal/pkg/presence/domain"
	repository "go-relay/internal/pkg/presence/persistence/repository/port"
)

// RegisterUserInput wraps the username to record.
type RegisterUserInput struct {
	Username string
}

// RegisterUserUseCase records a username in the durable user table. This is
// plain HTTP plumbing; joining the live roster still happens over the socket.
type RegisterUserUseCase struct {
	Repo repository.UserRepository
}

func NewRegisterUserUseCase(repo repository.UserRepository) *RegisterUserUseCase {
	return &RegisterUserUseCase{Repo: repo}
}

func (uc *RegisterUserUseCase) Execute(ctx context.Context, in RegisterUserInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return presence.ErrInvalidInput
	}
	if err := uc.Repo.Upsert(ctx, username); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
