/**
 * @description
 * This is the main entry point for the points ledger engine. It is responsible
 * for initializing all components of the service, including configuration,
 * database connection, the habit service client, message brokers, repositories,
 * the core application service, and the HTTP server. It wires everything
 * together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the engine.
 * - pkg/habitclient: Client for the habit-tracking service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/api"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/app"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/config"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
	"github.com/RajSoni19/EcoStreak-project-sub000/pkg/habitclient"
	rmrabbit "github.com/RajSoni19/EcoStreak-project-sub000/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting points-ledger-engine\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Pool sizing tuned for bursty community traffic around day boundaries.
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish ledger events. A broker
	// outage at boot degrades to the no-op fallback instead of failing.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the habit-tracking service. Missing habit
	// service config should not prevent the engine from booting; streak
	// evaluation will degrade to resets.
	var habitSource app.HabitSource
	if strings.TrimSpace(cfg.HabitServiceURL) == "" {
		log.Printf("level=warn component=bootstrap msg=\"habit service client not configured; streak continuation checks disabled\" env=HABIT_SERVICE_URL")
	} else {
		habitSource = habitclient.NewClient(cfg.HabitServiceURL, cfg.HabitServiceInternalAPIKey)
	}

	var redisClient *redis.Client
	if cfg.AppreciationRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; appreciation rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; appreciation rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; appreciation rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	ledgerService := app.NewService(
		repository,
		habitSource,
		producer,
		cfg.WeeklyStreakBonusPoints,
		cfg.LongStreakBonusPoints,
		cfg.LongStreakThresholdDays,
		cfg.AppreciationMaxPoints,
	)
	ledgerService.ConfigureAppreciationHardening(cfg.AppreciationRateLimitPerMinute)
	if redisClient != nil {
		ledgerService.SetRateLimiter(app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix))
	}

	// Initialize the API handlers.
	ledgerHandlers := api.NewLedgerHandlers(ledgerService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/ledger", api.LedgerRoutes(ledgerHandlers, cfg.JWKSURL))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	// Wire up the habit event consumer: habit completion events trigger the
	// daily streak evaluation for the acting account. A broker outage degrades
	// the engine to HTTP-only streak evaluation instead of aborting startup.
	habitConsumer := ledgerService.HabitEventConsumer()

	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer init failed; habit event consumption disabled\" err=%v", err)
		rabbitConsumer = nil
	} else {
		defer rabbitConsumer.Close()
	}

	if rabbitConsumer != nil {
		habitBindings := map[string]func([]byte) bool{
			"habit.completed": habitConsumer.HandleMessage,
		}
		if err := rabbitConsumer.ConsumeWithBindings("ecostreak.events", cfg.HabitEventQueue, habitBindings); err != nil {
			log.Printf("level=warn component=bootstrap msg=\"habit consumer start failed; habit event consumption disabled\" err=%v", err)
		}
	}

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
