package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"schedule-orchestrator/internal/adapters/cache"
	"schedule-orchestrator/internal/adapters/engine"
	"schedule-orchestrator/internal/api"
	"schedule-orchestrator/internal/config"
	"schedule-orchestrator/internal/platform/db"
	"schedule-orchestrator/internal/ports"
	"schedule-orchestrator/internal/services"
)

// main is the application composition root.
// It wires a cache backend and the engine client behind ports and starts
// the HTTP gateway.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")

	authToken := os.Getenv("API_TOKEN")
	if strings.TrimSpace(authToken) == "" {
		log.Fatal("API_TOKEN is required")
	}

	engineURL := os.Getenv("ENGINE_URL")
	if strings.TrimSpace(engineURL) == "" {
		log.Fatal("ENGINE_URL is required")
	}

	eng, err := engine.NewClient(
		engineURL,
		os.Getenv("ENGINE_API_KEY"),
		config.GetDuration("ENGINE_TIMEOUT", engine.DefaultTimeout),
	)
	if err != nil {
		log.Fatal(err)
	}

	ttl := config.GetDuration("CACHE_TTL", cache.DefaultTTL)
	retention := config.GetDuration("CACHE_RETENTION", cache.DefaultRetention)

	scheduleCache, err := buildCache(config.Get("CACHE_BACKEND", "memory"), ttl, retention)
	if err != nil {
		log.Fatal(err)
	}

	loc, err := loadLocation(config.Get("SCHEDULE_TIMEZONE", ""))
	if err != nil {
		log.Fatal(err)
	}

	orch := services.NewOrchestrator(scheduleCache, eng, loc)
	router := api.NewRouter(orch, loc, authToken)

	// Timeouts are tuned for the engine call (external API latency).
	log.Printf("Server listening addr=:%s cache=%s ttl=%s", port, config.Get("CACHE_BACKEND", "memory"), ttl)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func buildCache(backend string, ttl, retention time.Duration) (ports.ScheduleCache, error) {
	switch backend {
	case "memory":
		return cache.NewMemoryScheduleCache(ttl, retention), nil

	case "redis":
		opts, err := redis.ParseURL(config.Get("REDIS_URL", "redis://localhost:6379"))
		if err != nil {
			return nil, fmt.Errorf("build cache: parse REDIS_URL: %w", err)
		}
		return cache.NewRedisScheduleCache(redis.NewClient(opts), ttl, retention), nil

	case "postgres":
		databaseURL := os.Getenv("DATABASE_URL")
		if strings.TrimSpace(databaseURL) == "" {
			return nil, fmt.Errorf("build cache: DATABASE_URL is required for the postgres backend")
		}

		sqlDB, err := db.Open(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("build cache: %w", err)
		}

		// Initialize the cache schema on startup for local runs.
		if err := cache.InitPostgresSchema(sqlDB); err != nil {
			return nil, fmt.Errorf("build cache: %w", err)
		}
		return cache.NewPostgresScheduleCache(sqlDB, ttl, retention), nil

	default:
		return nil, fmt.Errorf("build cache: unknown CACHE_BACKEND %q", backend)
	}
}

// loadLocation resolves the timezone that defines "today" and "tomorrow"
// for protection. Empty means server-local time.
func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load SCHEDULE_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
