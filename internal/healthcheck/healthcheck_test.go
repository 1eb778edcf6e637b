package healthcheck

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	server := NewServer(zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- server.Serve(listener) }()
	t.Cleanup(func() {
		server.Stop()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return server, listener.Addr().String()
}

func TestProbeReflectsServingStatus(t *testing.T) {
	server, addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Probe(ctx, addr); err == nil {
		t.Fatal("expected NOT_SERVING before MarkServing")
	}

	server.MarkServing()
	if err := Probe(ctx, addr); err != nil {
		t.Fatalf("expected SERVING, got %v", err)
	}

	server.MarkNotServing()
	if err := Probe(ctx, addr); err == nil {
		t.Fatal("expected NOT_SERVING after MarkNotServing")
	}
}

func TestProbeFailsWithoutServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Probe(ctx, addr); err == nil {
		t.Fatal("expected dial error")
	}
}
