// cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qualityforce/internal/agents"
	http_api "qualityforce/internal/api/http"
	"qualityforce/internal/config"
	"qualityforce/internal/domain"
	"qualityforce/internal/infra/fsstore"
	"qualityforce/internal/orchestrator"
	"qualityforce/internal/registry"
	"qualityforce/internal/scheduler"
	"qualityforce/internal/tracing"
	"qualityforce/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMiddleware wraps an http.Handler with CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // For local dev, allow all origins
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	// 1. Initialize logger and tracer
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("qualityforce")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	log.Println("Starting QualityForce testing agent service...")

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup graceful shutdown
	setupGracefulShutdown(cancel)

	// 5. Instantiate components
	reg := registry.New(logger)
	if err := agents.RegisterAll(reg); err != nil {
		log.Fatalf("Failed to register agent catalog: %v", err)
	}
	log.Printf("Registered %d testing agents.", reg.Len())

	repo, err := fsstore.New(cfg.ResultsDir, cfg.EvidenceDir, logger)
	if err != nil {
		log.Fatalf("Failed to initialize result storage: %v", err)
	}

	orch := orchestrator.New(reg, orchestrator.Options{
		MaxConcurrent:    cfg.MaxConcurrentAgents,
		ExecutionTimeout: cfg.ExecutionTimeout,
	}, logger)

	executionService := usecase.NewExecutionService(orch, repo, logger)

	cronScheduler := scheduler.New(orch, logger)
	for i := range cfg.Schedules {
		schedule, err := toSchedule(&cfg.Schedules[i])
		if err != nil {
			log.Fatalf("Invalid schedule %q: %v", cfg.Schedules[i].Name, err)
		}
		if err := cronScheduler.AddSchedule(schedule); err != nil {
			log.Fatalf("Failed to add schedule %q: %v", schedule.Name, err)
		}
	}
	go func() {
		if err := cronScheduler.Start(rootCtx); err != nil && err != context.Canceled {
			log.Printf("Scheduler stopped with error: %v", err)
		}
	}()

	// 6. Register routes and metrics endpoint
	executionHandler := http_api.NewExecutionHandler(executionService, logger)
	agentHandler := http_api.NewAgentHandler(reg, logger)
	resultHandler := http_api.NewResultHandler(repo, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	executionHandler.RegisterRoutes(mux)
	agentHandler.RegisterRoutes(mux)
	resultHandler.RegisterRoutes(mux)
	registerHealthRoutes(mux, reg, orch)

	// 7. Start HTTP API server with CORS middleware
	log.Printf("Starting HTTP API server on %s", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: corsMiddleware(mux),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 8. Block until shutdown
	<-rootCtx.Done()
	log.Println("Shutting down application gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown failed: %v", err)
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Printf("Orchestrator shutdown failed: %v", err)
	}

	log.Println("Application shut down.")
}

func registerHealthRoutes(mux *http.ServeMux, reg *registry.Registry, orch *orchestrator.Orchestrator) {
	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service":           "qualityforce",
			"status":            "healthy",
			"agents_available":  reg.Len(),
			"active_executions": orch.ActiveCount(),
		})
	}
	mux.HandleFunc("/api/health", health)
	mux.HandleFunc("/{$}", health)
}

// toSchedule converts a config schedule entry into its domain form. The
// inputs block round-trips through JSON so it follows the same field names
// as the API.
func toSchedule(sc *config.ScheduleConfig) (*domain.Schedule, error) {
	schedule := &domain.Schedule{
		Name:     sc.Name,
		CronExpr: sc.CronExpr,
		Agent:    domain.AgentType(sc.AgentType),
	}
	if len(sc.Inputs) > 0 {
		raw, err := json.Marshal(sc.Inputs)
		if err != nil {
			return nil, err
		}
		var inputs domain.AgentInput
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return nil, err
		}
		schedule.Inputs = &inputs
	}
	return schedule, nil
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
