// Command seed creates a demo user in the configured users backend.
package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/peterphenikaa/zen8labs-auth/internal/config"
	"github.com/peterphenikaa/zen8labs-auth/internal/database"
	"github.com/peterphenikaa/zen8labs-auth/internal/users"
	"github.com/peterphenikaa/zen8labs-auth/pkg/logger"
)

func main() {
	email := flag.String("email", "demo@zen8labs.com", "user email")
	name := flag.String("name", "Demo User", "display name")
	password := flag.String("password", "demo123", "plain-text password")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo users.UserRepository
	switch cfg.Users.Backend {
	case config.UsersBackendMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("cannot connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mrepo := users.NewMongoUserRepository(client.Database(cfg.MongoDB.Database).Collection("users"))
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			logger.Fatalf("cannot create user indexes: %v", err)
		}
		repo = mrepo
	case config.UsersBackendPostgres:
		prepo, err := users.NewPostgresUserRepository(ctx, cfg.Postgres.URL)
		if err != nil {
			logger.Fatalf("cannot connect to Postgres: %v", err)
		}
		defer prepo.Close()
		if err := prepo.Migrate(ctx); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		repo = prepo
	default:
		logger.Fatalf("seeding needs a persistent users backend, got %q", cfg.Users.Backend)
	}

	id, err := users.NewService(repo, cfg.Users.BcryptCost).Register(ctx, *email, *name, *password)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		logger.Info("seed_user_exists", "email", *email)
	case err != nil:
		logger.Fatalf("seed failed: %v", err)
	default:
		logger.Info("seed_user_created", "id", id.ID, "email", id.Email)
	}
}
