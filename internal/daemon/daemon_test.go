package daemon_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"go.uber.org/goleak"

	"sebasite/internal/daemon"
	"sebasite/internal/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"
	d, err := daemon.New(cfg, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running || status.Address == "" {
		t.Fatalf("expected running daemon with address, got %+v", status)
	}
	resp, err := http.Get("http://" + status.Address + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	http.DefaultClient.CloseIdleConnections()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	if locked, err := daemon.Locked(cfg.LockPath()); err != nil || !locked {
		t.Fatalf("expected lock held, got %v %v", locked, err)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if locked, _ := daemon.Locked(cfg.LockPath()); locked {
		t.Fatal("expected lock released after stop")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"

	first, err := daemon.New(cfg, okHandler(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := daemon.New(cfg, okHandler(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Start(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestContextCancelStopsServing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"
	d, err := daemon.New(cfg, okHandler(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := d.Wait(); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	d.Stop()
}

func TestNewRequiresBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if _, err := daemon.New(cfg, okHandler(), nil); err == nil {
		t.Fatal("expected error without bind address")
	}
}
