package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/accesscode"
	"github.com/gymqrs/backend/internal/api"
	"github.com/gymqrs/backend/internal/auth"
	"github.com/gymqrs/backend/internal/config"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Server struct {
	config *config.AppConfig
	log    *zap.Logger
	echo   *echo.Echo
}

type Params struct {
	fx.In

	Config            *config.AppConfig
	Logger            *zap.Logger
	AuthHandler       *auth.Handler
	AuthMiddleware    *auth.AuthMiddleware
	AccessCodeHandler *accesscode.Handler
	Limiter           Limiter
}

func NewServer(p Params) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(p.Logger))
	e.Use(RateLimitMiddleware(&p.Config.RateLimit, p.Limiter, p.Logger))

	server := &Server{
		config: p.Config,
		log:    p.Logger,
		echo:   e,
	}

	registerRoutes(e, p)

	return server
}

func registerRoutes(e *echo.Echo, p Params) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST(api.UsersSignup, p.AuthHandler.Register)
	e.POST(api.UsersVerifyOTP, p.AuthHandler.VerifyOTP)
	e.POST(api.UsersResendOTP, p.AuthHandler.ResendOTP)
	e.POST(api.UsersToken, p.AuthHandler.Login)
	e.POST(api.UsersRefresh, p.AuthHandler.Refresh)

	authenticated := p.AuthMiddleware.Authenticate
	e.GET(api.UsersMe, p.AuthHandler.Me, authenticated)

	e.POST(api.GymIDsGenerate, p.AccessCodeHandler.GenerateCodes,
		authenticated, p.AuthMiddleware.RequireScope(auth.ScopeWrite))
	e.POST(api.GymIDsVerify, p.AccessCodeHandler.VerifyCode,
		authenticated, p.AuthMiddleware.RequireScope(auth.ScopeRead))
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Error("request", fields...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)

	s.log.Info("Starting HTTP server",
		zap.String("address", addr),
		zap.Bool("rate_limit_enabled", s.config.RateLimit.Enabled),
	)

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *Server) Stop() {
	s.log.Info("shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("forced shutdown", zap.Error(err))
	}
}
