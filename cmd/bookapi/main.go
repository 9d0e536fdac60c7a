// Command bookapi runs the book catalogue service and its admin tasks.
//
// @title                      Book API
// @version                    1.0
// @description                Book catalogue with HTTP Basic authentication and role-gated administration.
// @BasePath                   /
// @securityDefinitions.basic  BasicAuth
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/api"
	"github.com/bookshelf/book-api/internal/core/service"
	"github.com/bookshelf/book-api/internal/infrastructure/credentials"
	"github.com/bookshelf/book-api/internal/pkg/config"
	"github.com/bookshelf/book-api/pkg/logger"
)

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "migrate":
		err = migrate()
	case "hash-password":
		err = hashPassword()
	case "create-user":
		err = createUser(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [serve | migrate | hash-password | create-user -username NAME [-name DISPLAY] [-roles ROLE_A,ROLE_B]]\n", os.Args[0])
}

func setup() (*config.Config, zerolog.Logger) {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "bookapi",
	})
	return cfg, log
}

func serve() error {
	cfg, log := setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	bootstrap, err := credentials.ParseStatic(cfg.Auth.BootstrapUsers)
	if err != nil {
		return fmt.Errorf("bootstrap users: %w", err)
	}
	if bootstrap.Len() == 0 {
		log.Warn().Msg("no bootstrap users configured; only stored users can authenticate")
	}

	e := api.NewRouter(api.Deps{
		Books:                service.NewBookService(b.books, logger.Component("book_service")),
		Users:                service.NewUserService(b.users, b.cache, logger.Component("user_service")),
		Authenticator:        service.NewAuthService(logger.Component("auth_service"), bootstrap, b.credentials),
		HealthChecks:         b.checks,
		Logger:               logger.Component("http"),
		Realm:                cfg.Auth.Realm,
		NotFoundAsBadRequest: cfg.NotFoundAsBadRequest,
		Metrics:              true,
	})
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Int("bootstrap_users", bootstrap.Len()).
			Bool("credential_cache", b.cache != nil).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
