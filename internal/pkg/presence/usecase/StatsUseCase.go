package usecase

import (
	"context"
	"log"

	repository "go-relay/internal/pkg/presence/persistence/repository/port"
	"go-relay/internal/pkg/presence/registry"
)

// StatsOutput reports totals for the stats endpoint. TotalMessages is zero
// with Degraded set when the store cannot answer.
type StatsOutput struct {
	TotalMessages int64
	Online        int
	Degraded      bool
}

// StatsUseCase combines the durable message count with the live roster size.
type StatsUseCase struct {
	Repo     repository.MessageRepository
	Registry *registry.ConnectionRegistry
}

func NewStatsUseCase(repo repository.MessageRepository, reg *registry.ConnectionRegistry) *StatsUseCase {
	return &StatsUseCase{Repo: repo, Registry: reg}
}

func (uc *StatsUseCase) Execute(ctx context.Context) StatsOutput {
	out := StatsOutput{Online: uc.Registry.Count()}
	total, err := uc.Repo.CountMessages(ctx)
	if err != nil {
		log.Printf("stats: count messages: %v", err)
		out.Degraded = true
		return out
	}
	out.TotalMessages = total
	return out
}
