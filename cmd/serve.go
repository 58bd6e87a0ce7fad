package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"promptrelay/internal/chat"
	"promptrelay/internal/config"
	"promptrelay/internal/provider"
	providerfactory "promptrelay/internal/provider/factory"
	"promptrelay/internal/server"
)

type serveOptions struct {
	configPath string
	port       int
	watch      bool
}

func newServeCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Example: `  promptrelay serve
  promptrelay serve --config relay.yaml --port 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to YAML configuration file (optional)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port; overrides PORT and the configuration file")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "reload the configuration file when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Log))

	store := config.NewStore(cfg)
	resolver := config.NewResolver(store)

	port, err := listenPort(opts.port, resolver)
	if err != nil {
		return err
	}
	cfg.Server.Port = port

	ctx := cmd.Context()
	if opts.watch && opts.configPath != "" {
		if err := config.Watch(ctx, opts.configPath, store); err != nil {
			return err
		}
	}

	registry := provider.NewRegistry()
	if err := providerfactory.RegisterConfiguredProviders(cfg, registry); err != nil {
		return err
	}

	srv, err := server.New(cfg, resolver, chat.NewService(registry))
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

// listenPort applies the precedence flag > PORT > file.
func listenPort(flagPort int, resolver *config.Resolver) (int, error) {
	port := flagPort
	if port == 0 {
		var err error
		if port, err = resolver.ListenPort(); err != nil {
			return 0, err
		}
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d must be a valid TCP port", port)
	}
	return port, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
