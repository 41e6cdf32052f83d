package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/analysis"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/artifact"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/auth"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/config"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/driver"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/metrics"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/server"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/session"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/transcription"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "ai-meet-summarizer"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("http_address", cfg.HTTP.Address),
		slog.Int("fallback_sample_rate", cfg.Audio.FallbackSampleRate),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("analysis_model", cfg.Analysis.Model),
		slog.String("storage_bucket", cfg.Storage.Bucket),
		slog.String("store_dir", cfg.Store.Dir),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Open the embedded meeting database
	db, err := badger.Open(badger.DefaultOptions(cfg.Store.Dir).WithLogger(nil))
	if err != nil {
		logger.Error("Failed to open meeting database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Meeting database opened", slog.String("dir", cfg.Store.Dir))

	store := meeting.NewStore(db)
	authSvc := auth.NewService(db, cfg.Auth.GetTokenTTL())

	// Initialize the object storage publisher
	s3Client := s3.New(s3.Options{
		Region: cfg.Storage.Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.Storage.AccessKeyID,
				SecretAccessKey: cfg.Storage.SecretKey,
			}, nil
		}),
		BaseEndpoint: optionalEndpoint(cfg.Storage.Endpoint),
		UsePathStyle: cfg.Storage.UsePathStyle,
	})
	publisher := artifact.NewPublisher(s3Client, artifact.Config{
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		Prefix:        cfg.Storage.Prefix,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Timeout:       cfg.Storage.GetTimeoutDuration(),
	}, logger)
	logger.Info("Artifact publisher initialized", slog.String("bucket", cfg.Storage.Bucket))

	// Initialize the transcription client
	transcribeClient, err := transcription.NewClient(transcription.Config{
		Endpoint:      cfg.Transcription.Endpoint,
		APIKey:        cfg.Transcription.APIKey,
		Model:         cfg.Transcription.Model,
		Language:      cfg.Transcription.Language,
		Diarize:       cfg.Transcription.Diarize,
		Timeout:       cfg.Transcription.GetTimeoutDuration(),
		MaxRetries:    cfg.Transcription.MaxRetries,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
	})
	if err != nil {
		logger.Error("Failed to create transcription client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the analysis client
	analysisClient, err := analysis.NewClient(analysis.Config{
		APIKey:      cfg.Analysis.APIKey,
		BaseURL:     cfg.Analysis.BaseURL,
		Model:       cfg.Analysis.Model,
		Temperature: cfg.Analysis.Temperature,
		Timeout:     cfg.Analysis.GetTimeoutDuration(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create analysis client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire the driver bridge, pipeline, and session manager
	bridge := driver.NewBridge(logger)
	pipeline := session.NewPipeline(transcribeClient, analysisClient, publisher, session.PipelineConfig{
		TranscribeTimeout: cfg.Pipeline.GetTranscribeTimeout(),
		AnalyzeTimeout:    cfg.Pipeline.GetAnalyzeTimeout(),
		UploadTimeout:     cfg.Pipeline.GetUploadTimeout(),
	}, appMetrics, logger)
	sessionMgr := session.NewManager(bridge, pipeline, store, session.ManagerConfig{
		FallbackSampleRate: cfg.Audio.FallbackSampleRate,
	}, appMetrics, logger)
	logger.Info("Session manager initialized")

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg.HTTP, logger, sessionMgr, store, authSvc,
		bridge, transcribeClient, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Finalize remaining sessions so their recordings are not lost
	sessionCtx, sessionCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer sessionCancel()
	if err := sessionMgr.Stop(sessionCtx); err != nil {
		logger.Error("Error stopping session manager", slog.String("error", err.Error()))
	}

	if err := transcribeClient.Close(); err != nil {
		logger.Error("Error closing transcription client", slog.String("error", err.Error()))
	}

	stats := sessionMgr.GetStats()
	logger.Info("Final session statistics",
		slog.Uint64("sessions_launched", stats.SessionsLaunched),
		slog.Uint64("sessions_finalized", stats.SessionsFinalized),
		slog.Uint64("persist_failures", stats.PersistFailures),
	)

	logger.Info("Service stopped")
}

func optionalEndpoint(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
