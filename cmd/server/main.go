package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-listings/internal/config"
	"github.com/stagedoor/theatre-listings/internal/database"
	"github.com/stagedoor/theatre-listings/internal/handler"
	"github.com/stagedoor/theatre-listings/internal/middleware"
	"github.com/stagedoor/theatre-listings/internal/queue"
	"github.com/stagedoor/theatre-listings/internal/repository"
	"github.com/stagedoor/theatre-listings/internal/router"
	"github.com/stagedoor/theatre-listings/internal/scheduler"
	queue_publisher "github.com/stagedoor/theatre-listings/internal/service"
)

func main() {
	// .env is optional; in production everything comes from the environment.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema bootstrap failed: %v", err)
	}
	cancel()

	listings := repository.NewListingRepo(db)

	public := handler.NewPublicHandler(listings)
	admin := handler.NewAdminHandler(listings, cfg.AdminPass, cfg.AdminPassHash)
	admin.Publish = queue_publisher.PublishImportCompleted

	middleware.InitPrometheus()

	e := echo.New()
	e.Use(middleware.Monitor())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, public)

	// Admin chain: Basic auth first, then the Redis token bucket. A nil
	// Redis client (unreachable server) disables the limiter, never the API.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; admin rate limiting disabled")
	}
	router.RegisterAdmin(e, admin,
		middleware.BasicAuth(cfg.AdminUser, cfg.AdminPass, cfg.AdminPassHash),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)

	// Background import audit trail; reconnects on its own.
	go func() {
		if err := queue.StartImportConsumer(); err != nil {
			log.Printf("import consumer stopped: %v", err)
		}
	}()

	// Daily running-show count.
	sched := scheduler.New(listings, cfg.StatsCronSpec)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}
	defer sched.Stop()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
