package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/po-intake/internal/directory"
)

// DirectoryService is the health service name tracking the directory dependency.
const DirectoryService = "po-intake.directory"

// NewGRPC returns a gRPC server exposing health and reflection.
func NewGRPC() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DirectoryService, healthpb.HealthCheckResponse_UNKNOWN)
	reflection.Register(srv)
	return srv, hs
}

// ProbeDirectory lists customers every interval and reports the outcome as
// the DirectoryService status. It returns when ctx ends.
func ProbeDirectory(ctx context.Context, hs *health.Server, dir directory.Directory, interval, timeout time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := dir.ListCustomers(pctx); err != nil {
			logger.Warn("health.directory.down", "error", err)
			hs.SetServingStatus(DirectoryService, healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		hs.SetServingStatus(DirectoryService, healthpb.HealthCheckResponse_SERVING)
	}

	probe()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			probe()
		}
	}
}
