package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	v1 "go-relay/cmd/api/router/v1"
	"go-relay/internal/config"
	cacheadapter "go-relay/internal/infrastructure/cache/adapter"
	cacheport "go-relay/internal/infrastructure/cache/port"
	"go-relay/internal/infrastructure/database"
	queueadapter "go-relay/internal/infrastructure/queue/adapter"
	qport "go-relay/internal/infrastructure/queue/port"
	repoadapter "go-relay/internal/pkg/presence/persistence/repository/adapter"
	httpHandler "go-relay/internal/pkg/presence/presentation/http"
	"go-relay/internal/pkg/presence/registry"
	"go-relay/internal/pkg/presence/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The durable store is advisory for live routing: when the database is
	// unreachable the service starts in degraded mode instead of failing.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err = database.Connect(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Printf("database unavailable, running degraded: %v", err)
			pool = nil
		} else {
			defer pool.Close()
		}
	} else {
		log.Printf("DB_URL not set, running degraded")
	}

	var cache cacheport.Cache
	var queueClient qport.Client
	if cfg.RedisURL != "" {
		if rc, err := cacheadapter.NewRedisAdapter(cfg.RedisURL); err != nil {
			log.Printf("redis cache unavailable: %v", err)
		} else {
			cache = rc
			defer rc.Close()
		}

		if qc, err := queueadapter.NewAsynqClient(cfg.RedisURL); err != nil {
			log.Printf("queue client unavailable: %v", err)
		} else {
			queueClient = qc
			defer qc.Close()
		}

		if pool != nil {
			if srv, err := queueadapter.NewAsynqServer(cfg.RedisURL, cfg.QueueConcurrency); err != nil {
				log.Printf("queue server unavailable: %v", err)
			} else {
				task.RegisterMarkDeliveredTask(srv, repoadapter.NewPgMessageRepository(pool))
				go func() {
					if err := srv.Run(ctx); err != nil {
						log.Printf("queue server stopped: %v", err)
					}
				}()
			}
		}
	}

	reg := registry.New()

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "online": reg.Count()})
	})
	v1.RegisterRoutes(r, httpHandler.Deps{
		Pool:            pool,
		Cache:           cache,
		Queue:           queueClient,
		Registry:        reg,
		HistoryPageSize: cfg.HistoryPageSize,
		LastSeenTTL:     cfg.LastSeenTTL,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
