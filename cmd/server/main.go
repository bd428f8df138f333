package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/stelladora/alt-text-pipeline/internal/config"
	"github.com/stelladora/alt-text-pipeline/internal/describer"
	"github.com/stelladora/alt-text-pipeline/internal/httpapi"
	"github.com/stelladora/alt-text-pipeline/internal/identity"
	"github.com/stelladora/alt-text-pipeline/internal/orchestrator"
	"github.com/stelladora/alt-text-pipeline/internal/storage"
	"github.com/stelladora/alt-text-pipeline/internal/translator"
	"github.com/stelladora/alt-text-pipeline/pkg/telemetry"
)

const (
	ingestContainer = "ingest"
	publicContainer = "public"

	translateRPS   = 5
	translateBurst = 5
)

func main() {
	cfg := config.Load()

	settings := telemetry.DefaultSettings()
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		settings = settings.WithEnabled(true)
		shutdown, err := telemetry.NewExporterProvider(context.Background(), telemetry.ExporterConfig{
			ServiceName: "alt-text-pipeline",
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		})
		if err != nil {
			log.Printf("telemetry: exporter disabled: %v", err)
			settings = settings.WithEnabled(false)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	tokens := identity.NewProvider(cfg.IdentityEndpoint, cfg.IdentityHeader, cfg.AzureClientID)
	store := storage.NewClient(cfg.StorageAccount, tokens)

	limiter := rate.NewLimiter(rate.Limit(translateRPS), translateBurst)

	desc := describer.NewFromStrategy(cfg.DescriberStrategy, describer.Config{
		FoundryEndpoint: cfg.FoundryEndpoint,
		DeploymentSLM:   cfg.FoundryDeploymentSLM,
		DeploymentLLM:   cfg.FoundryDeploymentLLM,
		DeploymentPhi4:  cfg.FoundryDeploymentPhi4,
		APIVersion:      cfg.FoundryAPIVersion,
		VisionEndpoint:  cfg.VisionEndpoint,
	}, tokens)

	trans := translator.NewFromStrategy(cfg.TranslatorStrategy, translator.Config{
		TranslatorEndpoint: cfg.TranslatorEndpoint,
		TranslatorRegion:   cfg.TranslatorRegion,
		FoundryEndpoint:    cfg.FoundryEndpoint,
		DeploymentLLM:      cfg.FoundryDeploymentLLM,
		DeploymentPhi4:     cfg.FoundryDeploymentPhi4,
		APIVersion:         cfg.FoundryAPIVersion,
	}, tokens, limiter)

	orch := orchestrator.New(store, desc, trans, cfg.DefaultLocales, ingestContainer, publicContainer, settings)

	if cfg.LogLevel == "" || cfg.LogLevel == "info" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	httpapi.NewHandler(orch).Register(engine)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		log.Printf("alt-text-pipeline listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server: graceful shutdown failed: %v", err)
	}
}
