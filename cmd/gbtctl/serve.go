package main

import (
	"os/signal"
	"syscall"

	"github.com/danmuck/gbtlink/internal/auth"
	"github.com/danmuck/gbtlink/internal/config"
	"github.com/danmuck/gbtlink/internal/gateway"
	"github.com/danmuck/gbtlink/internal/logging"
	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/danmuck/gbtlink/internal/protocol/frame"
	"github.com/danmuck/gbtlink/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var platformUser, platformPass string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the terminal gateway and the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger := logging.Apply(logOptions(cfg.Log, flags.logLevel))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := protocol.DefaultRegistry()
			sessions := gateway.NewSessions()
			var platform auth.Validator
			if platformUser != "" {
				platform = auth.Static{Username: platformUser, Password: platformPass}
			}
			gw := gateway.New(gateway.Config{
				Addr:         cfg.Gateway.Addr,
				ReadTimeout:  cfg.Gateway.ReadTimeout,
				WriteTimeout: cfg.Gateway.WriteTimeout,
				Limits:       frame.Limits{MaxBodyBytes: cfg.Gateway.MaxBodyBytes},
				Platform:     platform,
			}, reg, sessions, logger)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return gw.ListenAndServe(ctx) })
			if cfg.Admin.Enabled {
				admin := server.Appear("gbtlink", cfg.Admin.Addr, cfg.Admin.CorsOrigins, reg, sessions)
				g.Go(func() error { return admin.Run(ctx) })
			}
			logger.Info().Str("gateway", cfg.Gateway.Addr).Bool("admin", cfg.Admin.Enabled).Msg("gbtlink started")
			err = g.Wait()
			logger.Info().Err(err).Msg("gbtlink stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&platformUser, "platform-user", "", "required platform login username")
	cmd.Flags().StringVar(&platformPass, "platform-password", "", "required platform login password")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func logOptions(cfg config.LogConfig, override string) logging.Options {
	opts := logging.DefaultOptions(logging.ProfileRuntime)
	level := cfg.Level
	if override != "" {
		level = override
	}
	if lvl, ok := logging.ParseLevel(level); ok {
		opts.Level = lvl
	}
	opts.File = cfg.File
	opts.MaxSizeMB = cfg.MaxSizeMB
	opts.MaxBackups = cfg.MaxBackups
	opts.MaxAgeDays = cfg.MaxAgeDays
	opts.Compress = cfg.Compress
	return opts
}
