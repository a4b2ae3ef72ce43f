package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Deepanshu954/TodoFlow/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, driver, dsn string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg, os.Stderr)

			sc := cfg.Server
			if addr != "" {
				sc.Addr = addr
			}
			if driver != "" {
				sc.Driver = driver
			}
			if dsn != "" {
				sc.DSN = dsn
			}
			if sc.JWTSecret == "" {
				sc.JWTSecret = rand.Text()
				log.Warn("no server.jwt_secret configured; tokens will not survive a restart")
			}

			db, err := server.OpenDB(sc.Driver, sc.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := server.New(server.Config{
				Addr:      sc.Addr,
				JWTSecret: sc.JWTSecret,
				APIKey:    sc.APIKey,
				TokenTTL:  time.Duration(sc.TokenTTLMin) * time.Minute,
			}, db, server.WithLogger(log))
			if err != nil {
				return fmt.Errorf("configuring server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&driver, "driver", "", "database driver: sqlite or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database file or connection string")
	return cmd
}
