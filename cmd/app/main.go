package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/evomics/docs/internal"
	pkgconfig "github.com/evomics/docs/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("watch") {
		cfg.Content.Watch = true
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Build(ctx, cmd.String("out"), internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("build error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func main() {
	watchFlag := &cli.BoolFlag{
		Name:    "watch",
		Usage:   "Reload content on file changes and push live-reload events",
		Sources: cli.EnvVars("APP_CONTENT_WATCH"),
	}

	cmd := &cli.Command{
		Name:   "evomics-docs",
		Usage:  "Documentation server for the Evomics biology guides",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			watchFlag,
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the site over HTTP (default)",
				Action: serve,
			},
			{
				Name:   "build",
				Usage:  "Pre-render every page, image and export into a directory",
				Action: build,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory",
						Value:   "public",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the documentation to LLM tooling over MCP (stdio)",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
