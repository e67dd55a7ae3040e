package kindguard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"

	"github.com/yyup/kindguard/internal/kindguard/audit"
	"github.com/yyup/kindguard/internal/kindguard/config"
	"github.com/yyup/kindguard/internal/kindguard/handler"
	"github.com/yyup/kindguard/internal/kindguard/pipeline"
	"github.com/yyup/kindguard/internal/kindguard/repository"
	"github.com/yyup/kindguard/internal/kindguard/server"
	"github.com/yyup/kindguard/internal/kindguard/store"
	"github.com/yyup/kindguard/pkg/logger"
	"github.com/yyup/kindguard/pkg/security/csrf"
	"github.com/yyup/kindguard/pkg/security/token"
)

// Server is the HTTP server for the kindguard access-control service.
type Server struct {
	httpServer *http.Server
}

// NewServer assembles the service from the loaded configuration: token codec,
// CSRF guard, session store (in-memory or Redis), audit logger, metrics and
// the routing table.
func NewServer() (*Server, error) {
	cfg := config.GetConfig()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			TracesSampleRate: 0.1,
		}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	codec, err := token.NewCodec([]byte(cfg.JWT.Secret), cfg.JWT.Issuer)
	if err != nil {
		return nil, err
	}

	var (
		csrfStore csrf.Store
		sessions  store.SessionStore
	)
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore, err := csrf.NewRedisStore(client, cfg.CSRF.TTL)
		if err != nil {
			return nil, err
		}
		csrfStore = redisStore
		sessions = store.NewRedisSessionStore(client, cfg.JWT.TTL)
	} else {
		csrfStore = csrf.NewMemoryStore()
		sessions = store.NewMemorySessionStore(cfg.JWT.TTL)
	}

	guard, err := csrf.NewGuard(csrfStore, csrf.Config{
		TTL:       cfg.CSRF.TTL,
		SingleUse: cfg.CSRF.SingleUse,
	})
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewLogger(logger.GetLogger(), audit.Config{
		Enabled:     cfg.Audit.Enabled,
		MinSeverity: cfg.Audit.MinSeverity,
	})
	metrics, err := pipeline.NewMetrics(nil)
	if err != nil {
		return nil, err
	}
	pipe := pipeline.New(codec, guard, auditLogger, metrics,
		pipeline.WithWhitelist("/api/health"),
		pipeline.WithAllowedOrigins(cfg.CSRF.AllowedOrigins...),
	)

	db := store.GetDB()
	ctrl := handler.NewController(
		repository.NewUserRepository(db),
		repository.NewStudentRepository(db),
		sessions,
		codec,
		guard,
		pipe,
		auditLogger,
		cfg.JWT.TTL,
	)

	router := server.RegisterRoutes(ctrl, pipe, metrics, cfg.Sentry.DSN != "")

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start runs the server until it is stopped or fails to listen.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until the context expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
