package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"schedule-orchestrator/internal/adapters/cache"
	"schedule-orchestrator/internal/config"
	"schedule-orchestrator/internal/platform/db"
)

// Operational tool for the Postgres cache backend: initializes the
// schema, clears a single user's entry, or prunes entries past retention.
func main() {
	clearUser := flag.String("clear", "", "clear the cached schedule for this user id")
	prune := flag.Bool("prune", false, "delete entries past the retention window")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	log.Println("Initializing cache schema...")
	if err := cache.InitPostgresSchema(sqlDB); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	ttl := config.GetDuration("CACHE_TTL", cache.DefaultTTL)
	retention := config.GetDuration("CACHE_RETENTION", cache.DefaultRetention)
	store := cache.NewPostgresScheduleCache(sqlDB, ttl, retention)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *clearUser != "" {
		if err := store.Clear(ctx, *clearUser); err != nil {
			log.Fatalf("clear failed: %v", err)
		}
		log.Printf("Cleared cache entry user_id=%s", *clearUser)
	}

	if *prune {
		n, err := store.PruneExpired(ctx)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Printf("Pruned %d expired entries", n)
	}
}
