// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/VoiceLedger/services/llm"
	"github.com/AleutianAI/VoiceLedger/services/voice/audit"
	"github.com/AleutianAI/VoiceLedger/services/voice/config"
	"github.com/AleutianAI/VoiceLedger/services/voice/conversation"
	"github.com/AleutianAI/VoiceLedger/services/voice/finance"
	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
	"github.com/AleutianAI/VoiceLedger/services/voice/observability"
	"github.com/AleutianAI/VoiceLedger/services/voice/routes"
	"github.com/AleutianAI/VoiceLedger/services/voice/speech"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "voiceledger-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("voice-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	var classifier *intent.Classifier
	if cfg.IntentRulesPath != "" {
		classifier, err = intent.NewClassifierFromFile(cfg.IntentRulesPath)
	} else {
		classifier, err = intent.NewClassifier()
	}
	if err != nil {
		log.Fatalf("FATAL: could not initialize the intent classifier: %v", err)
	}

	synthesizer, err := speech.NewSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenVoiceID,
		cfg.AudioDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the synthesizer: %v", err)
	}

	log.Println("Configuring the LLM Client")
	chatClient, err := llm.NewOpenAIClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	auditStore, err := audit.Open(audit.DefaultConfig(cfg.AuditDBPath))
	if err != nil {
		log.Fatalf("FATAL: could not open the audit store: %v", err)
	}
	defer auditStore.Close()

	metrics := observability.NewVoiceMetrics(prometheus.DefaultRegisterer)
	synthesizer.Observer = metrics

	gateway := finance.NewGateway(cfg.FinanceAPIURL)
	gateway.Observer = metrics

	ctrl := &conversation.Controller{
		Store:        conversation.NewStore(conversation.SystemPrompt),
		Classifier:   classifier,
		Mode:         cfg.ConsentMode,
		Gateway:      gateway,
		Chat:         chatClient,
		Speech:       synthesizer,
		Audit:        auditStore,
		Metrics:      metrics,
		HandleAction: routes.HandlePath,
		ConnectPath:  routes.ConnectPath,
		Language:     cfg.Language,
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("voice-service"))
	routes.SetupRoutes(router, ctrl, cfg.AudioDir)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Println("Starting the voice service on port", cfg.Port)
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.IntentRulesPath != "" {
		group.Go(func() error {
			return classifier.Watch(ctx, cfg.IntentRulesPath)
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Failed to run the voice service: %v", err)
	}
}
