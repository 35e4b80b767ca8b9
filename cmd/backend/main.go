package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/chat"
	"erpbot/chatbot-backend/internal/config"
	"erpbot/chatbot-backend/internal/gemini"
	"erpbot/chatbot-backend/internal/kb"
	"erpbot/chatbot-backend/internal/menu"
	"erpbot/chatbot-backend/internal/middleware"
	"erpbot/chatbot-backend/internal/workflow"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	middlewareutil "github.com/NYCU-SDC/summer/pkg/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.6.1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var AppName = "no-app-name"

var Version = "no-version"

var BuildTime = "no-build-time"

var CommitHash = "no-commit-hash"

var Environment = "no-env"

type stores struct {
	workflows workflow.Querier
	chat      chat.Querier
	kb        kb.Querier
	close     func()
}

func main() {
	AppName = os.Getenv("APP_NAME")
	if AppName == "" {
		AppName = "chatbot-backend"
	}

	if BuildTime == "no-build-time" {
		now := time.Now()
		BuildTime = "not provided (now: " + now.Format(time.RFC3339) + ")"
	}

	Environment = os.Getenv("ENV")
	if Environment == "" {
		Environment = "no-env"
	}

	appMetadata := []zap.Field{
		zap.String("app_name", AppName),
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit_hash", CommitHash),
		zap.String("environment", Environment),
	}

	cfg, cfgLog := config.Load()
	err := cfg.Validate()
	if err != nil {
		switch {
		case errors.Is(err, config.ErrDatabaseURLRequired):
			title := "Database URL is required"
			message := "Please set the DATABASE_URL environment variable or provide a config file with the database_url key, or run with STORE=memory."
			log.Fatal(EarlyApplicationFailed(title, message))
		case errors.Is(err, config.ErrInvalidStore):
			title := fmt.Sprintf("Unknown store %q", cfg.Store)
			message := "Set STORE (or the store key) to postgres or memory."
			log.Fatal(EarlyApplicationFailed(title, message))
		default:
			log.Fatalf("Failed to validate config: %v, exiting...", err)
		}
	}

	logger, err := initLogger(&cfg, appMetadata)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v, exiting...", err)
	}

	cfgLog.FlushToZap(logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, free-text questions will be answered with the apology message")
	}

	logger.Info("Starting application...", zap.String("store", cfg.Store))

	backends, err := initStores(&cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize stores", zap.Error(err))
	}
	defer backends.close()

	shutdown, err := initOpenTelemetry(AppName, Version, BuildTime, CommitHash, Environment, cfg.OtelCollectorUrl)
	if err != nil {
		logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	validator := internal.NewValidator()
	problemWriter := internal.NewProblemWriter()

	// Service
	workflowService := workflow.NewService(logger, backends.workflows)
	kbService := kb.NewService(logger, backends.kb)
	geminiService := gemini.NewService(logger, gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	menuSource := menu.NewSource(logger, workflowService)
	chatService := chat.NewService(logger, backends.chat, geminiService, kbService, menuSource)

	seedCompanyContext(logger, kbService, cfg.CompanyContextPath)

	// Handler
	workflowHandler := workflow.NewHandler(logger, validator, problemWriter, workflowService)
	chatHandler := chat.NewHandler(logger, validator, problemWriter, chatService)
	kbHandler := kb.NewHandler(logger, problemWriter, kbService)

	// Middleware
	httpMiddleware := middleware.New(logger, cfg.Debug, cfg.AllowOrigins)

	// Basic Middleware (Tracing, Recovery and CORS)
	basicMiddleware := middlewareutil.NewSet(httpMiddleware.Recover)
	basicMiddleware = basicMiddleware.Append(httpMiddleware.Trace)
	basicMiddleware = basicMiddleware.Append(httpMiddleware.CORS)

	// Chat Middleware
	chatMiddleware := middlewareutil.NewSet(httpMiddleware.Recover)
	chatMiddleware = chatMiddleware.Append(httpMiddleware.Trace)
	chatMiddleware = chatMiddleware.Append(httpMiddleware.CORS)
	chatMiddleware = chatMiddleware.Append(httpMiddleware.Session)

	// HTTP Server
	mux := http.NewServeMux()

	// Health check route
	mux.HandleFunc("GET /api/healthz", basicMiddleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			logger.Error("Failed to write response", zap.Error(err))
		}
	}))

	// Preflight requests for every API route
	mux.HandleFunc("OPTIONS /api/", basicMiddleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Workflow routes
	mux.HandleFunc("GET /api/workflows", basicMiddleware.HandlerFunc(workflowHandler.ListWorkflows))
	mux.HandleFunc("POST /api/workflows", basicMiddleware.HandlerFunc(workflowHandler.CreateWorkflow))
	mux.HandleFunc("GET /api/workflows/active", basicMiddleware.HandlerFunc(workflowHandler.GetActiveWorkflow))
	mux.HandleFunc("POST /api/workflows/validate", basicMiddleware.HandlerFunc(workflowHandler.ValidateWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}", basicMiddleware.HandlerFunc(workflowHandler.GetWorkflow))
	mux.HandleFunc("PUT /api/workflows/{id}", basicMiddleware.HandlerFunc(workflowHandler.UpdateWorkflow))
	mux.HandleFunc("DELETE /api/workflows/{id}", basicMiddleware.HandlerFunc(workflowHandler.DeleteWorkflow))
	mux.HandleFunc("POST /api/workflows/{id}/duplicate", basicMiddleware.HandlerFunc(workflowHandler.DuplicateWorkflow))
	mux.HandleFunc("POST /api/workflows/{id}/activate", basicMiddleware.HandlerFunc(workflowHandler.ActivateWorkflow))
	mux.HandleFunc("POST /api/workflows/{id}/test", basicMiddleware.HandlerFunc(workflowHandler.TestWorkflow))

	// Template routes
	mux.HandleFunc("GET /api/workflow-templates", basicMiddleware.HandlerFunc(workflowHandler.ListTemplates))
	mux.HandleFunc("POST /api/workflow-templates/use", basicMiddleware.HandlerFunc(workflowHandler.UseTemplate))

	// Chat routes
	mux.HandleFunc("POST /api/chat/session", chatMiddleware.HandlerFunc(chatHandler.CreateSession))
	mux.HandleFunc("POST /api/chat/message", chatMiddleware.HandlerFunc(chatHandler.SendMessage))
	mux.HandleFunc("GET /api/chat/history/{sessionId}", chatMiddleware.HandlerFunc(chatHandler.GetHistory))
	mux.HandleFunc("POST /api/chat/log", chatMiddleware.HandlerFunc(chatHandler.LogMessage))
	mux.HandleFunc("GET /api/chat/menu", chatMiddleware.HandlerFunc(chatHandler.GetMenu))
	mux.HandleFunc("POST /api/chat/menu/select", chatMiddleware.HandlerFunc(chatHandler.SelectOption))

	// Knowledge base routes
	mux.HandleFunc("GET /api/kb/raw", basicMiddleware.HandlerFunc(kbHandler.GetRaw))
	mux.HandleFunc("PATCH /api/kb/raw", basicMiddleware.HandlerFunc(kbHandler.PatchRaw))

	// handle interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logger.Info("Starting listening request", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Fail to start server with error", zap.Error(err))
		}
	}()

	// wait for context close
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := shutdown(otelCtx); err != nil {
		logger.Error("Forced to shutdown OpenTelemetry", zap.Error(err))
	}

	logger.Info("Successfully shutdown")
}

func initStores(cfg *config.Config, logger *zap.Logger) (stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory stores, data is lost on restart")
		return stores{
			workflows: workflow.NewMemoryStore(),
			chat:      chat.NewMemoryStore(),
			kb:        kb.NewMemoryStore(),
			close:     func() {},
		}, nil
	}

	logger.Info("Starting database migration...")

	err := databaseutil.MigrationUp(cfg.MigrationSource, cfg.DatabaseURL, logger)
	if err != nil {
		return stores{}, fmt.Errorf("failed to run database migration: %w", err)
	}

	dbPool, err := initDatabasePool(cfg.DatabaseURL)
	if err != nil {
		return stores{}, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	return stores{
		workflows: workflow.New(dbPool),
		chat:      chat.New(dbPool),
		kb:        kb.New(dbPool),
		close:     dbPool.Close,
	}, nil
}

// seedCompanyContext stores the bundled company context unless a document already exists.
func seedCompanyContext(logger *zap.Logger, kbService *kb.Service, path string) {
	if path == "" {
		return
	}

	document, err := kb.LoadFile(path)
	if err != nil {
		logger.Warn("Failed to load company context file", zap.String("path", path), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := kbService.Seed(ctx, document); err != nil {
		logger.Warn("Failed to seed company context", zap.String("path", path), zap.Error(err))
	}
}

func initLogger(cfg *config.Config, appMetadata []zap.Field) (*zap.Logger, error) {
	var err error
	var logger *zap.Logger
	if cfg.Debug {
		logger, err = logutil.ZapDevelopmentConfig().Build()
		if err != nil {
			return nil, err
		}
		logger.Info("Running in debug mode", appMetadata...)
	} else {
		logger, err = logutil.ZapProductionConfig().Build()
		if err != nil {
			return nil, err
		}

		logger = logger.With(appMetadata...)
	}
	defer func() {
		err := logger.Sync()
		if err != nil {
			zap.S().Errorw("Failed to sync logger", zap.Error(err))
		}
	}()

	return logger, nil
}

func initDatabasePool(databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return dbPool, nil
}

func initOpenTelemetry(appName, version, buildTime, commitHash, environment, otelCollectorUrl string) (func(context.Context) error, error) {
	ctx := context.Background()

	serviceName := semconv.ServiceNameKey.String(appName)
	serviceVersion := semconv.ServiceVersionKey.String(version)
	serviceNamespace := semconv.ServiceNamespaceKey.String("erpbot")
	serviceCommitHash := semconv.ServiceVersionKey.String(commitHash)
	serviceEnvironment := semconv.DeploymentEnvironmentKey.String(environment)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			serviceName,
			serviceVersion,
			serviceNamespace,
			serviceCommitHash,
			serviceEnvironment,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if otelCollectorUrl != "" {
		conn, err := initGrpcConn(otelCollectorUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}

		traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
		options = append(options, sdktrace.WithSpanProcessor(bsp))
	}

	tracerProvider := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider.Shutdown, nil
}

func initGrpcConn(target string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	return conn, nil
}

func EarlyApplicationFailed(title, action string) string {
	result := `
-----------------------------------------
Application Failed to Start
-----------------------------------------

# What's wrong?
%s

# How to fix it?
%s

`

	result = fmt.Sprintf(result, title, action)
	return result
}
