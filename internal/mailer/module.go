package mailer

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/config"
)

// Module provides the OTP mail sender
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) Sender {
					if config.SMTP.Enabled {
						return NewSMTPSender(&config.SMTP, log)
					}
					return NewLogSender(log)
				},
			),
		),
	)
}
