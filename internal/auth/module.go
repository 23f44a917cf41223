package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gymqrs/backend/internal/config"
	"github.com/gymqrs/backend/internal/mailer"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, mail mailer.Sender) *Service {
					return NewService(&config.Auth, &config.OTP, log, repo, mail)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *AuthMiddleware {
					return NewAuthMiddleware(svc, log)
				},
			),
		),
	)
}
