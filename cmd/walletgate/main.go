package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletgate/walletgate/adapters/events"
	"github.com/walletgate/walletgate/adapters/registry"
	"github.com/walletgate/walletgate/adapters/store"
	"github.com/walletgate/walletgate/adapters/tokenizer"
	"github.com/walletgate/walletgate/internal/config"
	"github.com/walletgate/walletgate/ports"
	"github.com/walletgate/walletgate/service"
	"github.com/walletgate/walletgate/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Generate a signing key pair (you would normally load this from
	// somewhere secure).
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		logger.Error("failed to generate signing key", "error", err)
		os.Exit(1)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create Redis publisher", "error", err)
		os.Exit(1)
	}

	var identities ports.IdentityStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		identities = store.NewPostgresIdentityStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory identity store")
		identities = store.NewMemoryIdentityStore()
	}

	sessionRegistry := registry.NewMemoryRegistry()
	issuer := tokenizer.NewJWTTokenizer(signKey, cfg.AccessTTL())
	revocation := store.NewRedisRevocationStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	auth := service.NewAuthService(sessionRegistry, identities, issuer, revocation, eventPub, logger)
	registration := service.NewRegistrationService(identities, eventPub, logger)

	router := http.SetupRouter(auth, registration, sessionRegistry, logger)

	logger.Info("starting server", "addr", cfg.ListenAddr, "env", cfg.Env)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
