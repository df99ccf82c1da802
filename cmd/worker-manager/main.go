// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"incident-relay/internal/common/camunda"
	"incident-relay/internal/common/config"
	"incident-relay/internal/common/llm"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/delivery"
	"incident-relay/internal/extraction"
	"incident-relay/internal/incident"
	"incident-relay/internal/pipeline"
	"incident-relay/pkg/registry"

	eit "incident-relay/internal/workers/incident/extract-incident-ticket"
	pi "incident-relay/internal/workers/incident/post-incident"
	vi "incident-relay/internal/workers/incident/validate-incident"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		zap.NewExample().Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": "worker-manager",
	})
	log.Info("Starting worker manager...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	reporter, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.App.Version)
	if err != nil {
		log.Warn("sentry disabled", map[string]interface{}{"error": err.Error()})
	}
	defer reporter.Flush()

	obs, err := observability.New("worker-manager")
	if err != nil {
		log.Warn("otel metrics disabled", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown()

	if cfg.Camunda.BrokerAddress == "" {
		zapLog.Fatal("camunda.broker_address is required")
	}
	if cfg.Webhook.URL == "" {
		zapLog.Fatal("webhook.url is required")
	}

	// --- Init Zeebe Client with retry ---
	ctx := context.Background()
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            camunda.DefaultRetryConfig,
	}, log)
	if err != nil {
		reporter.Capture(err, map[string]string{"component": "camunda"}, nil)
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()

	// --- Init Domain Services ---
	completer, err := llm.New(cfg)
	if err != nil {
		zapLog.Fatal("llm client init failed", zap.Error(err))
	}
	extractor := extraction.NewExtractor(completer, log, obs)
	tickets := pipeline.New(extractor, incident.NewBuilder(), log)
	webhook := delivery.NewWebhookClient(&delivery.Config{
		URL:     cfg.Webhook.URL,
		Timeout: cfg.Webhook.TimeoutDuration(),
	}, log, obs)

	log.Info("All domain services initialized", map[string]interface{}{
		"llmProvider": completer.Provider(),
	})

	activities, err := registry.LoadRegistry(cfg.App.RegistryPath)
	if err == nil {
		err = activities.Validate()
	}
	if err != nil {
		log.Warn("activity registry unavailable", map[string]interface{}{
			"path":  cfg.App.RegistryPath,
			"error": err.Error(),
		})
		activities = &registry.ActivityRegistry{}
	}

	// --- Register Workers ---
	var workers []worker.JobWorker
	register := func(taskType string, handler worker.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if activity, ok := activities.Find(taskType); ok {
			log.Info("registering activity", map[string]interface{}{
				"taskType":    taskType,
				"displayName": activity.DisplayName,
				"version":     activity.Version,
				"errorCodes":  activity.ErrorCodes,
			})
			if _, exists := cfg.Workers[taskType]; !exists && activity.TimeoutDuration() > 0 {
				wcfg.Timeout = int(activity.TimeoutDuration().Milliseconds())
			}
			if schema, err := activity.CompileInputSchema(); err == nil {
				handler = camunda.WithInputSchema(schema, handler, log)
			} else {
				log.Warn("input schema not applied", map[string]interface{}{"taskType": taskType, "error": err.Error()})
			}
		} else {
			log.Warn("task type missing from activity registry", map[string]interface{}{"taskType": taskType})
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, log))
	}

	register(eit.TaskType, eit.NewHandler(eit.LoadConfig(), tickets, log, obs).Handle)
	register(vi.TaskType, vi.NewHandler(vi.LoadConfig(), log, obs).Handle)

	postCfg := pi.LoadConfig()
	if t := cfg.Webhook.TimeoutDuration() + 5*time.Second; t > postCfg.Timeout {
		postCfg.Timeout = t
	}
	register(pi.TaskType, pi.NewHandler(postCfg, webhook, log, obs).Handle)

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(hctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
