package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "go-relay/internal/infrastructure/cache/port"
	qport "go-relay/internal/infrastructure/queue/port"
	"go-relay/internal/pkg/presence/persistence/repository/adapter"
	"go-relay/internal/pkg/presence/presentation/controller"
	"go-relay/internal/pkg/presence/registry"
	"go-relay/internal/pkg/presence/routing"
	"go-relay/internal/pkg/presence/usecase"
)

// Deps carries everything the presence endpoints need. Pool, Cache, and Queue
// may be nil; the affected endpoints then answer in degraded mode.
type Deps struct {
	Pool            *pgxpool.Pool
	Cache           cacheport.Cache
	Queue           qport.Client
	Registry        *registry.ConnectionRegistry
	HistoryPageSize int
	LastSeenTTL     time.Duration
}

// RegisterRoutes registers presence endpoints under the given router group
// and wires the websocket endpoint to the routing core.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	msgRepo := adapter.NewPgMessageRepository(d.Pool)
	userRepo := adapter.NewPgUserRepository(d.Pool)

	router := routing.NewRouter(d.Registry, msgRepo, d.Queue)
	broadcaster := routing.NewBroadcaster(d.Registry)
	typing := routing.NewTypingSignal(d.Registry)
	lastSeenUC := usecase.NewLastSeenUseCase(d.Cache, d.Registry, d.LastSeenTTL)

	historyCtl := controller.NewHistoryController(usecase.NewGetHistoryUseCase(msgRepo), d.HistoryPageSize)
	statsCtl := controller.NewStatsController(usecase.NewStatsUseCase(msgRepo, d.Registry))
	registerCtl := controller.NewRegisterUserController(usecase.NewRegisterUserUseCase(userRepo))
	lastSeenCtl := controller.NewLastSeenController(lastSeenUC)
	socketCtl := controller.NewChatSocketController(d.Registry, router, broadcaster, typing, lastSeenUC)

	g.GET("/messages/history", historyCtl.Handle())
	g.GET("/stats", statsCtl.Handle())
	g.POST("/users", registerCtl.Handle())
	g.GET("/users/:username/last-seen", lastSeenCtl.Handle())
	g.GET("/chat/ws", socketCtl.Handle())
}
