package main // Entry point package

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/famlink/internal/assistant"
	"github.com/iliyamo/famlink/internal/config"
	"github.com/iliyamo/famlink/internal/handler"
	"github.com/iliyamo/famlink/internal/middleware"
	"github.com/iliyamo/famlink/internal/notify"
	"github.com/iliyamo/famlink/internal/queue"
	"github.com/iliyamo/famlink/internal/router"
	"github.com/iliyamo/famlink/internal/service"
	"github.com/iliyamo/famlink/internal/store/mysql"
	"github.com/iliyamo/famlink/internal/upload"
)

func main() {
	// .env is a convenience for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	// Structured logs for the service layer; infra keeps plain log.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	st, err := mysql.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer st.Close()

	// Redis backs the rate limiter and the change feed. nil degrades
	// both gracefully.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and change feed disabled")
	}
	notifier := notify.NewRedisNotifier(rdb)

	events := &queue.Publisher{Disabled: os.Getenv("ACTIVITY_EVENTS_DISABLED") == "true"}
	if !events.Disabled {
		// Durable activity log consumer; reconnects on its own.
		go func() {
			if err := queue.StartActivityConsumer(); err != nil {
				log.Printf("activity consumer stopped: %v", err)
			}
		}()
	}

	uploads, err := upload.NewStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatalf("init upload store: %v", err)
	}

	identity := service.NewIdentity(st, cfg.BcryptCost, cfg.SeedOperatorUser, events)
	registry := service.NewRegistry(st, st, notifier, events)
	messages := service.NewMessageLog(st, st, notifier, events)
	sessions := service.NewSession(identity, st, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)

	if err := identity.EnsureSeedOperator(context.Background(), cfg.SeedOperatorUser, cfg.SeedOperatorPass); err != nil {
		log.Fatalf("seed operator: %v", err)
	}

	assist := assistant.New(cfg.AssistantAPIURL, cfg.AssistantAPIKey)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Auth:      handler.NewAuthHandler(sessions, identity),
		Groups:    handler.NewGroupHandler(identity, registry),
		Messages:  handler.NewMessageHandler(identity, messages),
		Uploads:   handler.NewUploadHandler(uploads),
		Assistant: handler.NewAssistantHandler(identity, registry, messages, assist),
		Admin:     handler.NewAdminHandler(identity),
		Events:    handler.NewEventsHandler(notifier),
	}, cfg.JWTSecret)

	// Uploaded attachments are served straight from the object dir.
	e.Static("/uploads", uploads.Dir())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
