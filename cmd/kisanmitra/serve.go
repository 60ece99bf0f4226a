package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kisanmitra/advisory/internal/api"
	"github.com/kisanmitra/advisory/internal/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when a token is configured, the Telegram bot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(parent context.Context, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Telegram.Token != "" {
		b, err := bot.New(a.cfg.Telegram.Token, a.advisory, a.logger)
		if err != nil {
			a.logger.Error("Failed to create Telegram bot", zap.Error(err))
		} else {
			go func() {
				if err := b.Start(ctx); err != nil {
					a.logger.Error("Telegram bot stopped", zap.Error(err))
				}
			}()
		}
	}

	mode := "demo"
	if a.advisor.RemoteEnabled() {
		mode = "openai"
	}
	a.logger.Info("KisanMitra starting",
		zap.String("mode", mode),
		zap.String("database", a.cfg.Database.Driver),
		zap.String("addr", a.cfg.Server.Addr()))

	server := api.NewServer(a.advisory, api.Options{
		Addr:             a.cfg.Server.Addr(),
		ShutdownTimeout:  a.cfg.Server.ShutdownTimeout,
		APIKeyConfigured: a.cfg.APIKeyConfigured(),
	}, a.logger)

	if err := server.Run(ctx); err != nil {
		a.logger.Error("Server error", zap.Error(err))
		return err
	}
	return nil
}
