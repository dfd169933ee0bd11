package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/internal/export"
	"github.com/ByteCodeVikash/lead-scraper/internal/resolver"
	"github.com/ByteCodeVikash/lead-scraper/pkg/types"
)

func main() {
	cfgPath := flag.String("config", "", "Path to resolver configuration file (optional)")
	format := flag.String("format", "json", "Output format: json or csv")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: resolve [flags] <company name or URL> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	logger := newLogger(cfg.Logging)

	engine, err := resolver.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise resolver: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results := make([]types.ResolutionResult, 0, flag.NArg())
	for _, input := range flag.Args() {
		if ctx.Err() != nil {
			break
		}
		results = append(results, engine.Resolve(ctx, input))
	}

	switch *format {
	case "csv":
		if err := export.WriteCSV(os.Stdout, results); err != nil {
			fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
			os.Exit(1)
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, result := range results {
			if err := enc.Encode(result); err != nil {
				fmt.Fprintf(os.Stderr, "write json: %v\n", err)
				os.Exit(1)
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Structured {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
