package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/grpc/health"

	grpchealth "github.com/dtroode/authkeeper/internal/api/grpc/health"
	grpcrouter "github.com/dtroode/authkeeper/internal/api/grpc/router"
	grpcserver "github.com/dtroode/authkeeper/internal/api/grpc/server"
	httpctx "github.com/dtroode/authkeeper/internal/api/http/context"
	httprouter "github.com/dtroode/authkeeper/internal/api/http/router"
	httpserver "github.com/dtroode/authkeeper/internal/api/http/server"
	"github.com/dtroode/authkeeper/internal/config"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/password"
	"github.com/dtroode/authkeeper/internal/repository/postgres"
	"github.com/dtroode/authkeeper/internal/repository/redis"
	"github.com/dtroode/authkeeper/internal/server"
	"github.com/dtroode/authkeeper/internal/service"
	"github.com/dtroode/authkeeper/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, model.ErrSigning) {
			logger.Fatal("refusing to start with invalid signing configuration", "error", err)
		}
		logger.Fatal("invalid configuration", "error", err)
	}

	logAppVersion()

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN,
		postgres.WithMaxConns(cfg.Database.MaxConns),
		postgres.WithMinConns(cfg.Database.MinConns),
		postgres.WithMaxConnLifetime(cfg.Database.MaxConnLifetime),
		postgres.WithMaxConnIdleTime(cfg.Database.MaxConnIdleTime),
	)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)

	refreshTokenRepo, closeLedger, err := newLedger(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to initialize refresh token ledger", "error", err, "backend", cfg.Ledger.Backend)
	}
	defer closeLedger()

	tokenManager, err := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}
	hasher := password.NewBcrypt(cfg.Password.BcryptCost)

	authService := service.NewAuth(userRepo, refreshTokenRepo, hasher, tokenManager, cfg.Ledger.Timeout, logger)
	accessGate := service.NewAccessGate(tokenManager, logger)
	reaper := service.NewReaper(refreshTokenRepo, cfg.Ledger.ReapInterval, cfg.Ledger.Timeout, logger)

	healthServer := health.NewServer()
	checker := grpchealth.NewChecker(healthServer, map[string]grpchealth.Pinger{
		"users":  userRepo,
		"ledger": refreshTokenRepo,
	}, cfg.GRPC.CheckInterval, cfg.Ledger.Timeout, logger)

	apiServer := httpserver.NewHTTPServer(
		httprouter.New(authService, accessGate, httpctx.NewManager(), logger).Register(),
		fmt.Sprintf(":%s", cfg.HTTP.Port),
		cfg.HTTP.ReadTimeout,
		cfg.HTTP.WriteTimeout,
	)
	grpcServer := grpcserver.NewGRPCServer(
		grpcrouter.New(healthServer, logger).Register(),
		fmt.Sprintf(":%s", cfg.GRPC.Port),
	)

	tls := cfg.HTTP
	servers := map[model.Server]model.SecurityLayer{
		apiServer:  server.NewSecurityLayer(tls.EnableHTTPS, tls.CertFileName, tls.PrivateKeyFileName),
		grpcServer: server.NewSecurityLayer(tls.EnableHTTPS, tls.CertFileName, tls.PrivateKeyFileName, "h2"),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reaper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		checker.Run(ctx)
	}()

	for s, sl := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "server", s.Name(), "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "server", s.Name(), "error", err)
				stop()
			}
		}(s, sl)
	}

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "server", s.Name(), "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newLedger opens the configured refresh token ledger.
func newLedger(ctx context.Context, cfg *config.Config, db *postgres.Connection) (model.RefreshTokenStore, func(), error) {
	if cfg.Ledger.Backend != config.LedgerRedis {
		return postgres.NewRefreshTokenRepository(db), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Ledger.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return redis.NewRefreshTokenRepository(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
