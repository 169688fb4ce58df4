package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chr1sbest/permauthz/internal/config"
	"github.com/chr1sbest/permauthz/internal/parser"
	"github.com/chr1sbest/permauthz/internal/policy"
	"github.com/chr1sbest/permauthz/internal/server"
	"github.com/chr1sbest/permauthz/internal/session"
)

func serveCmd(args []string) error {
	flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	envFile := flagSet.String("env-file", ".env", "load environment variables from this file if it exists")
	policyPath := flagSet.String("policy", "", "path to the policy document (overrides PERMAUTHZ_POLICY)")
	addr := flagSet.String("addr", "", "listen address (overrides PERMAUTHZ_ADDR)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *policyPath != "" {
		cfg.PolicyPath = *policyPath
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	doc, err := parser.ParseConfig(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("parse policy: %w", err)
	}
	table := policy.Compile(doc)

	store := session.NewStore(cfg.TokenHeader, logger)
	handler, err := server.NewRouter(table, store, logger)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Warn("demo server: the token endpoint issues any requested permissions without authentication", "path", server.TokenPath)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "policy", cfg.PolicyPath, "routes", len(table.Routes()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
