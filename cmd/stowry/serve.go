package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/config"
	"github.com/sagarc03/stowry/database"
	"github.com/sagarc03/stowry/filesystem"
	stowryhttp "github.com/sagarc03/stowry/http"
	"github.com/sagarc03/stowry/keyring"
	"github.com/sagarc03/stowry/sign"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Stowry HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")
	serveCmd.Flags().String("mode", "store", "server mode (store, static, spa)")
	serveCmd.Flags().Bool("populate", false, "sync metadata from the storage directory before serving")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	repo, closeRepo, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeRepo()
	slog.Info("connected to database", "type", cfg.Database.Type)

	if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	storage := filesystem.NewStore(root)

	mode, err := stowry.ParseServerMode(cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("parse server mode: %w", err)
	}

	service, err := stowry.NewService(repo, storage, stowry.ServiceConfig{
		Mode:           mode,
		CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	if populate, _ := cmd.Flags().GetBool("populate"); populate {
		if err := service.Populate(ctx); err != nil {
			return fmt.Errorf("populate metadata: %w", err)
		}
		slog.Info("metadata populated from storage")
	}

	readVerifier, writeVerifier, err := buildVerifiers(cfg)
	if err != nil {
		return err
	}

	handler := stowryhttp.NewHandler(&stowryhttp.HandlerConfig{
		Mode:          mode,
		ReadVerifier:  readVerifier,
		WriteVerifier: writeVerifier,
		CORS:          cfg.CORS,
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "mode", mode, "schemes", cfg.Auth.Schemes)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildVerifiers wires one shared verifier onto the private route groups.
// Fully public deployments skip key loading entirely.
func buildVerifiers(cfg *config.Config) (read, write stowryhttp.RequestVerifier, err error) {
	privateRead := cfg.Auth.Read == "private"
	privateWrite := cfg.Auth.Write == "private"
	if !privateRead && !privateWrite {
		return nil, nil, nil
	}

	keys, err := keyring.Load(cfg.Auth.Keys)
	if err != nil {
		return nil, nil, fmt.Errorf("load access keys: %w", err)
	}
	if keys.Len() == 0 {
		return nil, nil, fmt.Errorf("auth is private but no access keys are configured")
	}

	verifier := sign.NewVerifier(keys, cfg.Auth.VerifierConfig(), cfg.Auth.EnabledSchemes()...)

	if privateRead {
		read = verifier
	}
	if privateWrite {
		write = verifier
	}
	return read, write, nil
}
