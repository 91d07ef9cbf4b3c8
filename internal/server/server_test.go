package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ServeAndShutdownOrder(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, Options{ShutdownTimeout: 5 * time.Second}, testLogger())

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("store", record("store"))
	srv.OnShutdown("worker", record("worker"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "worker,store" {
		t.Errorf("shutdown order = %v, want worker before store", order)
	}
}

func TestServer_ShutdownJoinsComponentErrors(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Options{ShutdownTimeout: time.Second}, testLogger())

	boom := errors.New("boom")
	var reached bool
	srv.OnShutdown("first", func(ctx context.Context) error {
		reached = true
		return nil
	})
	srv.OnShutdown("second", func(ctx context.Context) error { return boom })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Serve(ctx, ln)
	if !errors.Is(err, boom) {
		t.Fatalf("Serve error = %v, want boom", err)
	}
	if !reached {
		t.Error("later components must still be stopped after a failure")
	}
}
