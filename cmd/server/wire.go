// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"fmt"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/RachitSrivastava96/virasat-setu/internal/app"
	"github.com/RachitSrivastava96/virasat-setu/internal/auth"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/identity"
	"github.com/RachitSrivastava96/virasat-setu/internal/platform/database"
	"github.com/RachitSrivastava96/virasat-setu/internal/platform/logger"
	platformredis "github.com/RachitSrivastava96/virasat-setu/internal/platform/redis"
	"github.com/RachitSrivastava96/virasat-setu/internal/session"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		platformredis.NewClient,

		// Identity
		provideIdentityRepository,
		identity.NewService,
		wire.Bind(new(shared.Service), new(*identity.ServiceImplementation)),

		// Sessions
		session.NewRedisStore,
		wire.Bind(new(session.Store), new(*session.RedisStore)),
		session.NewGateway,

		// HTTP boundary
		auth.NewOAuthService,
		auth.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

// provideIdentityRepository migrates the schema before handing out the
// repository so the uniqueness constraints exist from the first request.
func provideIdentityRepository(db *gorm.DB, cfg *config.Config) (identity.Repository, error) {
	if err := identity.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating identity schema: %w", err)
	}
	return identity.NewGORMRepository(db, cfg), nil
}
