// Package admin exposes the health of every composed component over the
// standard gRPC health protocol.
package admin

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/modules/settings"
)

const (
	ModuleName    = "bindery.admin"
	ModuleVersion = "1.0.0"

	// OverallService is the health service name that aggregates every
	// reporter.
	OverallService = ""

	defaultRefreshInterval = 15 * time.Second
)

// HealthReporter is implemented by components that can check themselves.
// Implementations do not need to import this package.
type HealthReporter interface {
	HealthName() string
	CheckHealth(ctx context.Context) error
}

var HealthReporterContract = compose.ContractOf[HealthReporter]()

func Module() *compose.Module {
	return &compose.Module{
		Name:    ModuleName,
		Version: ModuleVersion,
		Plugin:  true,
		Dependencies: []compose.Dependency{
			{Name: settings.ModuleName, Version: settings.ModuleVersion, Plugin: true},
		},
		Contracts: []compose.Contract{HealthReporterContract},
		Components: []compose.Component{
			compose.NewComponent(NewHealthServer, compose.Explicit()),
		},
	}
}

// HealthServer publishes one gRPC health service per reporter plus the
// overall status.
type HealthServer struct {
	address   string
	reporters []HealthReporter
	health    *health.Server
	interval  time.Duration

	mu     sync.Mutex
	failed map[string]error
}

func NewHealthServer(reporters []HealthReporter, cfg *settings.Settings) *HealthServer {
	return &HealthServer{
		address:   cfg.AdminAddress,
		reporters: reporters,
		health:    health.NewServer(),
		interval:  defaultRefreshInterval,
		failed:    map[string]error{},
	}
}

func (s *HealthServer) Address() string {
	return s.address
}

func (s *HealthServer) Reporters() []string {
	out := make([]string, 0, len(s.reporters))
	for _, r := range s.reporters {
		out = append(out, r.HealthName())
	}
	return out
}

// Refresh runs every reporter's check and updates the published statuses.
// It returns the number of failing reporters.
func (s *HealthServer) Refresh(ctx context.Context) int {
	logger := log.FromContext(ctx)
	failing := 0

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reporters {
		name := r.HealthName()
		status := healthpb.HealthCheckResponse_SERVING
		if err := r.CheckHealth(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			failing++
			if _, known := s.failed[name]; !known {
				logger.Error(err, "health check failing", "service", name)
			}
			s.failed[name] = err
		} else {
			delete(s.failed, name)
		}
		s.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if failing > 0 {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(OverallService, overall)
	return failing
}

// Serve serves the health protocol on lis until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)
	s.Refresh(ctx)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-stop:
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	err := srv.Serve(lis)
	close(stop)
	wg.Wait()
	if err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("admin: grpc serve: %w", err)
	}
	return nil
}

// ListenAndServe serves on the configured address. It returns immediately
// when no address is configured.
func (s *HealthServer) ListenAndServe(ctx context.Context) error {
	if s.address == "" {
		log.FromContext(ctx).V(1).Info("admin endpoint disabled")
		return nil
	}
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("admin: listen %s: %w", s.address, err)
	}
	log.FromContext(ctx).Info("serving health", "address", lis.Addr().String())
	return s.Serve(ctx, lis)
}
