package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/accesscode"
	"github.com/gymqrs/backend/internal/auth"
	"github.com/gymqrs/backend/internal/config"
	"github.com/gymqrs/backend/internal/database"
	"github.com/gymqrs/backend/internal/mailer"
	"github.com/gymqrs/backend/internal/migration"
	"github.com/gymqrs/backend/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Database and schema
		database.Module(),
		migration.Module(),

		// OTP delivery
		mailer.Module(),

		// Feature modules
		auth.NewModule(),
		accesscode.NewModule(),

		// Server
		fx.Provide(newLimiter),
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func newLimiter(config *config.AppConfig, log *zap.Logger) server.Limiter {
	return server.NewLimiter(&config.RateLimit, log)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			srv.Stop()
			return nil
		},
	})
}
