package main

// @title           Masjid Content API
// @version         1.0
// @description     Read-through access, search and sharing for Asmaul Husna, doa, hadith and Quran content.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token with role=admin. Format: "Bearer {token}"

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nurulhuda/masjid-content/internal/adapters/driven/auth"
	"github.com/nurulhuda/masjid-content/internal/adapters/driven/memory"
	"github.com/nurulhuda/masjid-content/internal/adapters/driven/myquran"
	"github.com/nurulhuda/masjid-content/internal/adapters/driven/postgres"
	redisadapter "github.com/nurulhuda/masjid-content/internal/adapters/driven/redis"
	"github.com/nurulhuda/masjid-content/internal/adapters/driving/http"
	"github.com/nurulhuda/masjid-content/internal/config"
	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
	"github.com/nurulhuda/masjid-content/internal/core/services"
	"github.com/nurulhuda/masjid-content/internal/metrics"
	"github.com/nurulhuda/masjid-content/internal/normalisers"
)

var version = "dev"

// backend bundles the cache store with the lock of the same infrastructure
type backend struct {
	store   driven.CacheStore
	lock    driven.DistributedLock
	cleanup func()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(newLogger(cfg))
	log.Printf("masjid-content %s starting in %s mode", version, cfg.RunMode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Admin tokens =====
	authService := services.NewAuthService(auth.NewAdapter(cfg.AdminJWTSecret))
	if cfg.RunMode == config.ModeToken {
		runToken(ctx, authService)
		return
	}
	if cfg.AdminJWTSecret == "" {
		log.Println("Warning: ADMIN_JWT_SECRET is empty, admin endpoints will reject every token")
	}

	m := metrics.New()

	// ===== Cache backend =====
	be, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s cache backend: %v", cfg.CacheBackend, err)
	}
	defer be.cleanup()

	// ===== Driven adapters =====
	source := myquran.NewClient(myquran.Config{
		BaseURL:     cfg.ContentAPIURL,
		Timeout:     cfg.ContentAPITimeout,
		UserAgent:   cfg.UserAgent,
		Normalisers: normalisers.DefaultRegistry(),
		Metrics:     m,
		Logger:      slog.Default(),
	})

	// ===== Services =====
	cache := services.NewContentCache(services.ContentCacheConfig{
		Store:      be.store,
		DefaultTTL: cfg.CacheTTL,
		TTLs:       cfg.CacheTTLs,
		Metrics:    m,
		Logger:     slog.Default(),
	})
	catalog := services.NewDisplayCatalog(services.DisplayCatalogConfig{
		Source:      source,
		Cache:       cache,
		Concurrency: cfg.CatalogConcurrency,
		ItemTimeout: cfg.CatalogItemTimeout,
		MaxPageSize: cfg.CatalogMaxPageSize,
		Metrics:     m,
		Logger:      slog.Default(),
	})
	search := services.NewSearchService(services.SearchServiceConfig{
		Catalog:      catalog,
		DefaultLimit: cfg.SearchDefaultLimit,
		MaxLimit:     cfg.SearchMaxLimit,
		Metrics:      m,
		Logger:       slog.Default(),
	})
	share := services.NewShareService(cfg.SiteBaseURL)

	warmer, err := services.NewCacheWarmer(services.CacheWarmerConfig{
		Catalog:  catalog,
		Lock:     be.lock,
		Schedule: cfg.WarmSchedule,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("Failed to create cache warmer: %v", err)
	}

	switch cfg.RunMode {
	case config.ModeWarm:
		if failed := runWarm(ctx, warmer); failed > 0 {
			be.cleanup()
			os.Exit(1)
		}

	case config.ModeServe:
		if err := warmer.Start(ctx); err != nil {
			log.Fatalf("Failed to start cache warmer: %v", err)
		}
		defer warmer.Stop()

		server := http.NewServer(http.Config{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Version:     version,
			CORSOrigins: cfg.CORSOrigins,
			Metrics:     m,
			Logger:      slog.Default(),
		}, catalog, search, share, cache, authService, be.store)

		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}
}

// openBackend connects the configured cache store. Redis and PostgreSQL also
// provide the warmer lock; the in-process store needs none.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		log.Println("Connecting to Redis...")
		client, err := redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Println("Using Redis cache store and lock")
		return &backend{
			store:   redisadapter.NewCacheStore(client),
			lock:    redisadapter.NewLock(client),
			cleanup: func() { client.Close() },
		}, nil

	case config.BackendPostgres:
		log.Println("Connecting to PostgreSQL...")
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		store := postgres.NewCacheStore(db)
		purgeCtx, stop := context.WithCancel(ctx)
		go purgeExpired(purgeCtx, store, time.Hour)
		log.Println("Using PostgreSQL cache store and advisory lock")
		return &backend{
			store: store,
			lock:  postgres.NewAdvisoryLock(db),
			cleanup: func() {
				stop()
				db.Close()
			},
		}, nil
	}

	store := memory.NewStore(memory.DefaultShards)
	sweepCtx, stop := context.WithCancel(ctx)
	go store.RunSweeper(sweepCtx, 10*time.Minute)
	log.Println("Using in-process cache store")
	return &backend{store: store, cleanup: stop}, nil
}

// purgeExpired deletes expired rows every interval until ctx is done
func purgeExpired(ctx context.Context, store *postgres.CacheStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("cache purged", "removed", n)
			}
		}
	}
}

// runWarm performs one warming cycle, prints the report and returns the number of failed collections
func runWarm(ctx context.Context, warmer *services.CacheWarmer) int {
	report, err := warmer.WarmOnce(ctx)
	if err != nil {
		log.Fatalf("Cache warm failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	failed := 0
	for _, r := range report.Results {
		if r.Error != "" {
			failed++
		}
	}
	return failed
}

// runToken prints an admin token: masjid-content token <subject> [ttl]
func runToken(ctx context.Context, authService driving.AuthService) {
	subject := "admin"
	if len(os.Args) > 2 {
		subject = os.Args[2]
	}
	ttl := 24 * time.Hour
	if len(os.Args) > 3 {
		d, err := time.ParseDuration(os.Args[3])
		if err != nil {
			log.Fatalf("Invalid token lifetime %q: %v", os.Args[3], err)
		}
		ttl = d
	}

	token, err := authService.IssueToken(ctx, subject, domain.RoleAdmin, ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
