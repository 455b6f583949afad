package messaging

import (
	"context"
	"net"
	"testing"
	"time"

	"crashalert-model-service/internal/config"
)

func TestNewServiceUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := &config.Config{
		NatsURL:            "nats://" + addr,
		NatsConnectTimeout: 200 * time.Millisecond,
		NatsReconnectWait:  10 * time.Millisecond,
		NatsMaxReconnects:  0,
	}

	if _, err := NewService(cfg); err == nil {
		t.Fatal("expected connect error")
	}
}

func TestZeroServiceIsSafe(t *testing.T) {
	s := &Service{}
	if s.IsConnected() {
		t.Error("zero service should not report connected")
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
