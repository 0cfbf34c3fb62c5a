// jobsync-marketplace-service
//
// Job marketplace backend: buyers post jobs, bidders place at most one bid
// per job, and anyone can browse a paginated, filterable catalogue.
// Exposes:
//   - a REST API (gorilla/mux) with cookie sessions
//   - a read-only gRPC API (GetJob, SearchJobs, CountJobs, ListMyBids)
//   - /metrics for Prometheus
//
// A cron job periodically recomputes jobs.bid_count under a Redis lock.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"jobsync/marketplace-service/internal/bids"
	"jobsync/marketplace-service/internal/config"
	"jobsync/marketplace-service/internal/db"
	"jobsync/marketplace-service/internal/grpcserver"
	"jobsync/marketplace-service/internal/httpapi"
	"jobsync/marketplace-service/internal/jobs"
	"jobsync/marketplace-service/internal/query"
	"jobsync/marketplace-service/internal/reconcile"
	"jobsync/marketplace-service/internal/session"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[marketplace-service] Config error: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[marketplace-service] Logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With(zap.String("service", "marketplace-service"), zap.String("version", version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Info("connecting to PostgreSQL")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres", zap.Error(err))
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}
	log.Info("PostgreSQL connected")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connected")

	// ── Domain ───────────────────────────────────────────────────────────────
	jobStore := jobs.NewStore(pool, log.Named("jobs"))
	bidStore := bids.NewStore(pool, jobStore, log.Named("bids"))
	search := query.NewService(jobStore, log.Named("query"))
	auth := session.NewAuthenticator(cfg.JWTSecret, cfg.Production())

	// ── Reconciliation ───────────────────────────────────────────────────────
	sched := reconcile.New(jobStore, reconcile.NewRedisLocker(rdb), cfg.ReconcileInterval, log.Named("reconcile"))
	if err := sched.Start(ctx); err != nil {
		log.Fatal("reconcile scheduler", zap.Error(err))
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	r := mux.NewRouter()
	httpapi.NewHandler(jobStore, bidStore, search, auth, log.Named("http")).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server", zap.Error(err))
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal("gRPC listen", zap.Error(err))
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.UnaryLogger(log.Named("grpc"))))
	grpcserver.Register(gs, grpcserver.NewServer(jobStore, search, bidStore, auth, log.Named("grpc")))

	go func() {
		log.Info("gRPC listening", zap.String("port", cfg.GRPCPort))
		if err := gs.Serve(lis); err != nil {
			log.Fatal("gRPC server", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown", zap.Error(err))
	}
	gs.GracefulStop()
	cancel()
	sched.Stop()
	log.Info("stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
