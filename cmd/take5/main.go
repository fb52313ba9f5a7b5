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

	"github.com/DoyleJ11/take5-client/internal/client"
	"github.com/DoyleJ11/take5-client/internal/config"
	"github.com/DoyleJ11/take5-client/internal/httpapi"
	"github.com/DoyleJ11/take5-client/internal/logger"
	"github.com/DoyleJ11/take5-client/internal/room"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           "take5",
		Short:         "Headless Take 5 client with a local view server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := rootCmd.Flags()
	f.String("server_url", "", "game server base URL (http or https)")
	f.String("name", "", "display name")
	f.String("listen", "", "address of the local view server")
	f.String("room", "", "room id to enter on start")
	f.Bool("create", false, "create the room instead of joining it")
	f.String("database_url", "", "Postgres DSN for identity and play journal; empty keeps both in memory")
	f.String("log_level", "", "debug, info, warn or error")
	f.String("log_format", "", "console or json")
	f.Int("journal_buffer", 0, "play journal buffer size")
	return rootCmd
}

func run(parent context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		ids     session.IdentityStore = &session.MemoryStore{}
		journal room.Journal
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		j := store.NewJournal(ctx, db, cfg.JournalBuffer, log)
		defer j.Close()
		ids = store.NewIdentityStore(db, profileName(cfg))
		journal = j
	}

	c, err := client.New(ctx, client.Options{Config: cfg, Log: log, Store: ids, Journal: journal})
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		if !errors.Is(err, client.ErrRoomNotFound) {
			return err
		}
		log.Warn("start", zap.Error(err))
	}

	srv := &http.Server{Addr: cfg.Listen, Handler: httpapi.SetupRoutes(c, log)}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("view server listening", zap.String("addr", cfg.Listen), zap.String("server", cfg.ServerURL))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// profileName keys the stored identity; one identity per display name.
func profileName(cfg config.Config) string {
	if cfg.Name == "" {
		return "default"
	}
	return cfg.Name
}
