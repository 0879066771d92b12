// Command unpatched-server is the control-plane process: it serves the
// operator REST surface, the /ws agent transport, and a metrics
// endpoint out of one binary.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/apimeister/unpatched-server/config"
	"github.com/apimeister/unpatched-server/internal/auth"
	"github.com/apimeister/unpatched-server/internal/domain"
	"github.com/apimeister/unpatched-server/internal/health"
	"github.com/apimeister/unpatched-server/internal/infrastructure/postgres"
	ctxlog "github.com/apimeister/unpatched-server/internal/log"
	"github.com/apimeister/unpatched-server/internal/metrics"
	"github.com/apimeister/unpatched-server/internal/repository"
	"github.com/apimeister/unpatched-server/internal/session"
	httptransport "github.com/apimeister/unpatched-server/internal/transport/http"
	"github.com/apimeister/unpatched-server/internal/transport/http/handler"
	"github.com/apimeister/unpatched-server/internal/transport/ws"
	"github.com/apimeister/unpatched-server/internal/usecase"
)

// cliFlags holds the CLI surface layered on top of config.Config.
type cliFlags struct {
	bind          string
	port          string
	noTLS         bool
	certFolder    string
	sevenPartCron bool
	initUser      string
	initPassword  string
}

func main() {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "unpatched-server",
		Short: "Control plane for a fleet of scripted agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	root.Flags().StringVar(&flags.bind, "bind", "0.0.0.0", "address to bind the server to")
	root.Flags().StringVar(&flags.port, "port", "8443", "port to bind the server to")
	root.Flags().BoolVar(&flags.noTLS, "no-tls", false, "serve plain HTTP instead of TLS")
	root.Flags().StringVar(&flags.certFolder, "cert-folder", ".", "directory containing cert.pem and key.pem")
	root.Flags().BoolVar(&flags.sevenPartCron, "seven-part-cron", false, "accept 7-field cron expressions verbatim instead of promoting 5-field ones")
	root.Flags().StringVar(&flags.initUser, "init-user", "", "email of an admin user to create on boot if absent")
	root.Flags().StringVar(&flags.initPassword, "init-password", "", "password for --init-user")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(flags *cliFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied")

	signingKey, keyErr := auth.LoadOrCreateSigningKey(cfg.SigningKeyDir)
	if keyErr != nil {
		logger.Warn("signing key regenerated, outstanding tokens invalidated", "error", keyErr)
	}
	tokens := auth.NewTokenIssuer(signingKey)

	hostRepo := postgres.NewHostRepository(pool)
	scriptRepo := postgres.NewScriptRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)
	executionRepo := postgres.NewExecutionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	blacklistRepo := postgres.NewBlacklistRepository(pool)

	if err := ensureInitUser(ctx, userRepo, flags.initUser, flags.initPassword, logger); err != nil {
		return fmt.Errorf("init user: %w", err)
	}

	metrics.Register()
	healthChecker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	authUsecase := usecase.NewAuthUsecase(userRepo, blacklistRepo, tokens)
	hostUsecase := usecase.NewHostUsecase(hostRepo)
	scriptUsecase := usecase.NewScriptUsecase(scriptRepo)
	scheduleUsecase := usecase.NewScheduleUsecase(scheduleRepo, hostRepo)
	executionUsecase := usecase.NewExecutionUsecase(executionRepo)
	userUsecase := usecase.NewUserUsecase(userRepo, blacklistRepo)

	handlers := httptransport.Handlers{
		Auth:      handler.NewAuthHandler(authUsecase, logger),
		Host:      handler.NewHostHandler(hostUsecase, scheduleUsecase, logger),
		Script:    handler.NewScriptHandler(scriptUsecase, logger),
		Schedule:  handler.NewScheduleHandler(scheduleUsecase, logger),
		Execution: handler.NewExecutionHandler(executionUsecase, logger),
		User:      handler.NewUserHandler(userUsecase, logger),
		Health:    healthChecker,
	}
	router := httptransport.NewRouter(handlers, tokens, logger)

	wsHandler := ws.NewHandler(hostRepo, session.Deps{
		Hosts:      hostRepo,
		Scripts:    scriptRepo,
		Schedules:  scheduleRepo,
		Executions: executionRepo,
	}, logger, cfg.TickInterval(), flags.sevenPartCron)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", router)

	addr := flags.bind + ":" + flags.port
	srv := &http.Server{Addr: addr, Handler: mux}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	serverErrs := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "tls", !flags.noTLS)
		if flags.noTLS {
			serverErrs <- srv.ListenAndServe()
			return
		}
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		serverErrs <- srv.ListenAndServeTLS(
			filepath.Join(flags.certFolder, "cert.pem"),
			filepath.Join(flags.certFolder, "key.pem"),
		)
	}()

	var fatalErr error
	select {
	case <-ctx.Done():
	case err := <-serverErrs:
		// A bind or certificate failure surfaces here before any request
		// is served; it is the one condition that warrants a non-zero exit.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatalErr = err
		}
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	return fatalErr
}

// ensureInitUser creates the --init-user admin account on first boot,
// so a fresh database always has at least one operator able to log in.
func ensureInitUser(ctx context.Context, users repository.UserRepository, email, password string, logger *slog.Logger) error {
	if email == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash init password: %w", err)
	}

	u := &domain.User{Email: email, Password: hash, Roles: []string{"admin"}, Active: true}
	if _, err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("create init user: %w", err)
	}
	logger.Info("bootstrap admin user created", "email", email)
	return nil
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
