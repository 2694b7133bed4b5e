// Command server runs the analysis HTTP API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"pricelens/internal/app"
	"pricelens/internal/config"
)

func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml if present)")
	input := flag.String("input", "", "price history file, overrides configuration")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Input.Path = *input
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
