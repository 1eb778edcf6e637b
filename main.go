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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/snake-check/internal/config"
	"github.com/example/snake-check/internal/handlers"
	"github.com/example/snake-check/internal/healthcheck"
	"github.com/example/snake-check/internal/logging"
	"github.com/example/snake-check/internal/usecase"
	"github.com/example/snake-check/internal/vision"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	// `snake-check healthcheck` is the container probe entrypoint.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runProbe(cfg.GRPCHealthAddr))
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := vision.New(ctx, cfg.Vision)
	if err != nil {
		logger.Fatal("failed to create vision client", zap.Error(err))
	}
	uc := usecase.NewClassificationUseCase(client, usecase.Options{
		MaxTokens:     cfg.Vision.MaxTokens,
		MaxDimension:  cfg.Image.MaxDimension,
		Timeout:       cfg.Vision.Timeout,
		RetryAttempts: cfg.Vision.RetryAttempts,
	}, logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	handlers.RegisterRoutes(r, uc, logger)

	health := healthcheck.NewServer(logger)
	healthListener, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		logger.Fatal("failed to listen for gRPC health", zap.Error(err), zap.String("addr", cfg.GRPCHealthAddr))
	}
	go func() {
		if err := health.Serve(healthListener); err != nil {
			logger.Error("gRPC health server failed", zap.Error(err))
		}
	}()
	defer health.Stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("snake classifier listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("provider", client.ProviderName()),
		zap.String("model", client.ModelName()),
	)
	health.MarkServing()
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger, health.MarkNotServing); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func runProbe(addr string) int {
	if host, port, err := net.SplitHostPort(addr); err == nil && host == "" {
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthcheck.Probe(ctx, addr); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	return 0
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, onShutdown func()) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil, onShutdown)
}

// serveHTTPServerWithOptions serves until the server fails or a signal
// arrives, then drains in-flight requests for up to shutdownTimeout. A nil
// listener uses server.Addr; a nil signalCh subscribes to SIGINT/SIGTERM.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal, onShutdown func()) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		if onShutdown != nil {
			onShutdown()
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
