package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/finpulse/finpulse-mcp/configs"
	"github.com/finpulse/finpulse-mcp/internal/adapter/inbound/adminhttp"
	"github.com/finpulse/finpulse-mcp/internal/adapter/outbound/finpulse"
	"github.com/finpulse/finpulse-mcp/internal/catalog"
	"github.com/finpulse/finpulse-mcp/internal/usecase"
	"github.com/finpulse/finpulse-mcp/internal/version"

	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	// === Command Line Flags ===
	var transport string
	flag.StringVar(&transport, "transport", "stdio", "Transport mode: stdio or sse")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	// Diagnostics go to stderr (or a file); stdout belongs to the protocol
	// in stdio mode and must stay clean.
	logLevel := cfg.ParsedLogLevel()
	logOut := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s, logging to stderr: %v\n", cfg.LogFile, err)
		} else {
			defer logFile.Close()
			logOut = logFile
		}
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	logger.Debug("Logger initialized.", slog.String("level", logLevel.String()), slog.String("transport", transport))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === MCP Server (mark3labs/mcp-go) ===
	// The tool list is fixed for the lifetime of the process, so the server
	// does not advertise listChanged notifications.
	mcpSrv := mcpGoServer.NewMCPServer(
		"finpulse-mcp",
		version.Version,
		mcpGoServer.WithToolCapabilities(false),
	)

	// === Dependency Injection ===
	httpClient := &http.Client{
		Timeout: cfg.HTTPClientTimeout,
	}
	logger.Debug("HTTP client configured.", slog.Duration("timeout", cfg.HTTPClientTimeout))

	apiClient := finpulse.New(cfg.BaseURL, cfg.APIKey, httpClient, logger)
	if cfg.APIKey == "" {
		// Startup continues so clients can still list tools; invocations
		// will fail with instructions for obtaining a key.
		logger.Warn("FINPULSE_API_KEY is not set. Tool invocations will fail until it is provided.")
	}

	specs := catalog.Tools()
	invokeUC := usecase.NewInvokeToolUseCase(apiClient, logger)
	invokeUC.RegisterAll(mcpSrv, specs)

	// === Transport Mode Selection ===
	switch transport {
	case "stdio":
		logger.Info("FinPulse MCP server ready.",
			slog.String("transport", transport),
			slog.Int("tools", len(specs)),
			slog.String("version", version.Version))

		stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("STDIO server error", slog.Any("error", err))
			os.Exit(1)
		}

	case "sse":
		sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+cfg.ListenAddr))

		// === Admin HTTP Server Setup ===
		adminMux := http.NewServeMux()
		adminHandlers := adminhttp.NewHandlers(len(specs), logger)
		adminHandlers.RegisterRoutes(adminMux)

		// === Listener Binding ===
		// Bind before announcing readiness: a bad address must fail
		// startup with a non-zero exit, not a clean shutdown.
		sseListener, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			logger.Error("Failed to bind MCP SSE listener.", slog.String("address", cfg.ListenAddr), slog.Any("error", err))
			os.Exit(1)
		}
		adminListener, err := net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			logger.Error("Failed to bind admin HTTP listener.", slog.String("address", cfg.AdminAddr), slog.Any("error", err))
			os.Exit(1)
		}

		sseHTTPServer := &http.Server{Handler: sseServer}
		adminServer := &http.Server{Handler: adminMux}

		// === Server Startup ===
		var sseFailed atomic.Bool
		go func() {
			logger.Debug("Admin HTTP server starting.", slog.String("address", cfg.AdminAddr))
			if err := adminServer.Serve(adminListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin HTTP server failed.", slog.Any("error", err))
			}
		}()
		go func() {
			logger.Debug("MCP SSE server starting.", slog.String("address", cfg.ListenAddr))
			if err := sseHTTPServer.Serve(sseListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("MCP SSE server failed.", slog.Any("error", err))
				sseFailed.Store(true)
				stop()
			}
		}()

		logger.Info("FinPulse MCP server ready.",
			slog.String("transport", transport),
			slog.String("address", cfg.ListenAddr),
			slog.Int("tools", len(specs)),
			slog.String("version", version.Version))

		// Wait for interrupt signal.
		<-ctx.Done()

		// === Server Shutdown ===
		logger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
		}
		if err := sseHTTPServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
		}

		if sseFailed.Load() {
			os.Exit(1)
		}
		logger.Info("Servers shut down gracefully.")

	default:
		logger.Error("Invalid transport mode", slog.String("transport", transport))
		os.Exit(1)
	}
}

// initOtelProvider initializes the OpenTelemetry SDK and sets up the OTLP
// trace exporter. It returns a shutdown function to be called on exit.
// Tracing is disabled when no OTLP endpoint is configured.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Debug("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	slog.Debug("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("finpulse-mcp"),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
