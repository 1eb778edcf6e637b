package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/snake-check/internal/classification"
	"github.com/example/snake-check/internal/handlers"
	"github.com/example/snake-check/internal/usecase"
	"github.com/example/snake-check/internal/vision"
)

// blockingVisionClient holds every call until release is closed.
type blockingVisionClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingVisionClient) Describe(ctx context.Context, req vision.Request) (string, error) {
	select {
	case <-b.started:
	default:
		close(b.started)
	}
	<-b.release
	return "Safety: this is a mildly venomous rear-fanged species.", nil
}

func (b *blockingVisionClient) ProviderName() string { return "stub" }

func (b *blockingVisionClient) ModelName() string { return "stub-model" }

func TestServerGracefulShutdownDrainsClassification(t *testing.T) {
	logger := zap.NewNop()

	client := &blockingVisionClient{started: make(chan struct{}), release: make(chan struct{})}
	defer func() {
		select {
		case <-client.release:
		default:
			close(client.release)
		}
	}()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	uc := usecase.NewClassificationUseCase(client, usecase.Options{}, logger)
	handlers.RegisterRoutes(router, uc, logger)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := &http.Server{Handler: router}

	signalCh := make(chan os.Signal, 1)
	shutdownCalled := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- serveHTTPServerWithOptions(server, 2*time.Second, logger, listener, signalCh, func() { close(shutdownCalled) })
	}()

	addr := listener.Addr().String()
	waitForServer(t, addr)

	httpClient := &http.Client{Timeout: 2 * time.Second}
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := httpClient.Post("http://"+addr+"/classify", "application/json", strings.NewReader(`{"image":"aW1hZ2U="}`))
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-client.started:
	case err := <-errCh:
		t.Fatalf("request failed before reaching upstream: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("classification did not reach the vision client in time")
	}

	signalCh <- syscall.SIGTERM

	select {
	case <-shutdownCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hook was not invoked")
	}
	close(client.release)

	select {
	case resp := <-respCh:
		t.Cleanup(func() { resp.Body.Close() })
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d body: %s", resp.StatusCode, string(body))
		}
		var result classification.Result
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if result.Status != classification.StatusMildlyVenomous {
			t.Fatalf("unexpected status: %q", result.Status)
		}
	case err := <-errCh:
		t.Fatalf("request failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("server did not shutdown cleanly: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not exit after shutdown")
	}
}

func TestRunProbeFailsWithoutHealthServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	_, port, _ := net.SplitHostPort(listener.Addr().String())
	listener.Close()

	if code := runProbe(":" + port); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server %s did not become ready", addr)
}
