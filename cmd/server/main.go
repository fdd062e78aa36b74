package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chnu/award-monitoring-system/internal/bootstrap"
	"github.com/chnu/award-monitoring-system/internal/controller"
	"github.com/chnu/award-monitoring-system/internal/interceptor"
	"github.com/chnu/award-monitoring-system/internal/repository"
	"github.com/chnu/award-monitoring-system/internal/service"
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/observability/implementation"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := bootstrap.LoadConfig()
	obs, err := implementation.NewObservability(ctx, bootstrap.ObservabilityConfig(cfg))
	if err != nil {
		panic(err)
	}
	log := obs.Logger().With(
		observability.String("application", cfg.ApplicationName),
		observability.String("environment", cfg.Environment),
	)
	reg := implementation.PromRegisterer(obs.Meter())
	if reg == nil {
		log.Fatal("prometheus registry not available")
	}

	grpcMetrics := grpc_prometheus.NewServerMetrics()
	reg.MustRegister(grpcMetrics)

	if err := obs.Start(ctx); err != nil {
		log.Error("failed to start observability", observability.Err(err))
	}

	metrics, err := service.NewBusinessMetricsService(obs.Meter())
	if err != nil {
		log.Fatal("failed to register business metrics", observability.Err(err))
	}

	idGen, err := bootstrap.InitializeSnowflake(log)
	if err != nil {
		log.Fatal("failed to initialize snowflake", observability.Err(err))
	}

	awardSvc := service.NewAwardService(repository.NewInMemoryAwardRepository(), metrics, obs.Tracer(), idGen)
	userSvc := service.NewUserService(repository.NewInMemoryUserRepository(), metrics, obs.Tracer(), idGen)

	httpMetrics, err := interceptor.HTTPMetrics(obs.Meter(), log)
	if err != nil {
		log.Fatal("failed to register http metrics", observability.Err(err))
	}

	mux := http.NewServeMux()
	controller.NewAwardController(awardSvc, userSvc, log).Register(mux)
	controller.NewActuatorController(cfg.AdminPathPrefix, implementation.PromGatherer(obs.Meter())).Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(httpMetrics(mux), "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Info("Shutting down server...")
		cancel() // cancel root context
	}()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", observability.String("addr", cfg.GRPCAddr), observability.Err(err))
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcMetrics.UnaryServerInterceptor(),
			interceptor.ErrorInterceptor(log),
		),
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	go func() {
		log.Info("gRPC server running", observability.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("failed to serve grpc", observability.Err(err))
		}
	}()

	go func() {
		log.Info("HTTP server running", observability.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to serve http", observability.Err(err))
		}
	}()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	<-ctx.Done()
	log.Info("Graceful stopping servers...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server", observability.Err(err))
	}
	grpcServer.GracefulStop()
	log.Info("servers stopped")

	if err := obs.Close(shutdownCtx); err != nil {
		log.Error("failed to close observability", observability.Err(err))
	}
}
