package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"sebasite/internal/config"
	"sebasite/internal/daemon"
	"sebasite/internal/daemonrun"
	"sebasite/internal/preflight"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState `json:"state"`
	PID   int        `json:"pid,omitempty"`
	URL   string     `json:"url"`
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int  `json:"pid"`
	ForcedKill bool `json:"forced_kill"`
}

// ErrDaemonNotRunning indicates no process holds the daemon lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Launch starts a detached "serve" process from executablePath.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"serve"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// BaseURL derives the URL a local client uses to reach the daemon bound at
// cfg.Paths.APIBind. Wildcard hosts map to loopback.
func BaseURL(cfg *config.Config) string {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Running reports whether a daemon holds the lock and its recorded pid.
func Running(cfg *config.Config) (bool, int, error) {
	locked, err := daemon.Locked(cfg.LockPath())
	if err != nil || !locked {
		return false, 0, err
	}
	return true, daemonrun.ReadPID(cfg), nil
}

// WaitForHealthy polls the daemon health endpoint until it answers 200.
func WaitForHealthy(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	defer client.CloseIdleConnections()

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("health returned %d", resp.StatusCode)
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one is already running.
func EnsureStarted(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	baseURL := BaseURL(cfg)
	running, pid, err := Running(cfg)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		return StartResult{State: StartStateAlreadyRunning, PID: pid, URL: baseURL}, nil
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForHealthy(ctx, baseURL, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: daemonrun.ReadPID(cfg), URL: baseURL}, nil
}

// WaitForShutdown waits for the daemon lock to be released.
func WaitForShutdown(lockPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		locked, err := daemon.Locked(lockPath)
		if err != nil {
			return err
		}
		if !locked {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop: lock %s still held", lockPath)
}

// StopAndTerminate sends SIGTERM to the daemon and force-kills it if the
// lock is still held after gracePeriod.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	running, pid, err := Running(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !running {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid <= 0 {
		return StopResult{}, fmt.Errorf("unable to determine daemon pid (pid file: %s)", daemonrun.PIDPath(cfg))
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return StopResult{}, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	result := StopResult{PID: pid}
	if err := WaitForShutdown(cfg.LockPath(), gracePeriod); err == nil {
		return result, nil
	}
	if err := proc.Kill(); err != nil {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	_ = os.Remove(daemonrun.PIDPath(cfg))
	result.ForcedKill = true
	return result, nil
}

// Snapshot is the status view rendered by the CLI.
type Snapshot struct {
	Running  bool               `json:"running"`
	PID      int                `json:"pid,omitempty"`
	URL      string             `json:"url"`
	LockPath string             `json:"lock_file"`
	LogPath  string             `json:"log_file"`
	Checks   []preflight.Result `json:"checks"`
}

// BuildStatusSnapshot collects process state plus the configured service checks.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (Snapshot, error) {
	running, pid, err := Running(cfg)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Running:  running,
		PID:      pid,
		URL:      BaseURL(cfg),
		LockPath: cfg.LockPath(),
		LogPath:  cfg.LogPath(),
	}
	snap.Checks = append(snap.Checks,
		preflight.CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		preflight.CheckRecordStoreFromConfig(ctx, cfg, nil),
		preflight.CheckContactFromConfig(ctx, cfg),
		preflight.CheckBlobFromConfig(cfg),
	)
	return snap, nil
}
