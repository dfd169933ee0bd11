package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ByteCodeVikash/lead-scraper/internal/api"
	"github.com/ByteCodeVikash/lead-scraper/internal/config"
	"github.com/ByteCodeVikash/lead-scraper/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to base resolver configuration")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	baseCfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	logger.Info("starting api server", "addr", *addr, "max_concurrent_jobs", baseCfg.API.MaxConcurrentJobs)

	managerOpts := []api.ManagerOption{}
	var resultStore *storage.SQLStore
	if baseCfg.DB.Driver != "" && baseCfg.DB.DSN != "" {
		resultStore, err = storage.NewSQLStore(baseCfg.DB)
		if err != nil {
			log.Fatalf("failed to initialise result store: %v", err)
		}
		defer resultStore.Close()
		managerOpts = append(managerOpts, api.WithResultStore(resultStore))
	}

	manager := api.NewJobManager(*baseCfg, ctx, logger, managerOpts...)
	server := api.NewServer(manager)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
		manager.Shutdown()
		if resultStore != nil {
			_ = resultStore.Close()
		}
	}()

	logger.Info("api server listening", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("API server stopped")
}
