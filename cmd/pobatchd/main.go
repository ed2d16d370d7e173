package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/po-intake/internal/batch"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/directory"
	"github.com/joseph-ayodele/po-intake/internal/export"
	"github.com/joseph-ayodele/po-intake/internal/extract"
	"github.com/joseph-ayodele/po-intake/internal/server"
	"github.com/joseph-ayodele/po-intake/internal/workbench"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (env vars override it)")
	flag.Parse()

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := directory.NewClient(directory.Config{BaseURL: cfg.Directory.BaseURL, Timeout: cfg.Directory.Timeout}, logger)
	sessions := workbench.NewSessions(workbench.Config{
		UnassignedScope: cfg.Batch.UnassignedScopePolicy,
		Batch: batch.Config{
			SupportsDefaultCustomerBranch: cfg.Batch.SupportsDefaultCustomerBranch,
			DefaultCustomerCode:           cfg.Batch.DefaultCustomerCode,
			MinInterval:                   cfg.Batch.MinInterval,
		},
	}, workbench.Deps{
		Directory: dir,
		Extractor: extract.NewClient(extract.Config{BaseURL: cfg.Extraction.BaseURL, Timeout: cfg.Extraction.Timeout}, logger),
		Exporter:  export.NewService(logger),
	}, logger)

	// gRPC: health + reflection for grpcurl
	grpcServer, hs := server.NewGRPC()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()
	go server.ProbeDirectory(ctx, hs, dir, 30*time.Second, cfg.Directory.Timeout, logger)

	if cfg.Server.SessionIdle > 0 {
		go sweepSessions(ctx, sessions, cfg.Server.SessionIdle)
	}

	e := server.NewHTTP(sessions, logger)
	go func() {
		logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	hs.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// sweepSessions evicts idle workbenches so their uploaded documents do not
// live for the whole process.
func sweepSessions(ctx context.Context, sessions *workbench.Sessions, idle time.Duration) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep(idle)
		}
	}
}
