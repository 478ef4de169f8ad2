package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sebasite/internal/admin"
	"sebasite/internal/config"
	"sebasite/internal/daemon"
	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/localcache"
	"sebasite/internal/logging"
	"sebasite/internal/notifications"
	"sebasite/internal/preflight"
	"sebasite/internal/recordstore"
	"sebasite/internal/session"
	"sebasite/internal/site"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, receives the bound address once the listener is up.
	Ready func(addr string)
}

// Run starts the sebasite daemon and blocks until ctx is cancelled or a
// termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("sebasite-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.LogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update sebasite.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "sebasite-*.log", Exclude: []string{logPath}},
	)

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	backend, err := recordstore.Open(cfg, logger)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return err
	}
	defer backend.Close()

	cache, err := localcache.Open(cfg, logger)
	if err != nil {
		logger.Error("open local cache", logging.Error(err))
		return err
	}
	defer cache.Close()

	logPreflight(signalCtx, logger, cfg, backend)

	sess := session.New(cache, session.Options{
		Password:        cfg.Admin.Password,
		DefaultLanguage: cfg.Site.DefaultLanguage,
	}, logger)
	if err := sess.Init(signalCtx); err != nil {
		return fmt.Errorf("init session: %w", err)
	}

	var metrics *site.Metrics
	adminOpts := admin.Options{
		Images: imaging.Options{
			MaxDimension: cfg.Images.MaxDimension,
			Quality:      cfg.Images.Quality,
			MaxBytes:     cfg.MaxUploadBytes(),
		},
		Workers: cfg.Images.Workers,
		Logger:  logger,
	}
	if cfg.Metrics.Enabled {
		metrics = site.NewMetrics()
		adminOpts.Observer = metrics
	}

	controller := admin.New(
		datasource.Projects(backend, cache, logger),
		datasource.News(backend, cache, 0, logger),
		adminOpts,
	)
	defer controller.Close()
	projectsSource, newsSource := controller.Load(signalCtx)
	logger.Info("admin collections loaded",
		logging.String(logging.FieldEventType, "admin_collections_loaded"),
		logging.String("projects_source", string(projectsSource)),
		logging.String("news_source", string(newsSource)),
		logging.Int("projects", len(controller.Projects())),
		logging.Int("news", len(controller.News())),
	)

	server := site.New(site.Deps{
		Config:   cfg,
		Projects: datasource.Projects(backend, cache, logger),
		News:     datasource.News(backend, cache, cfg.RecordStore.NewsLimit, logger),
		Admin:    controller,
		Session:  sess,
		Notifier: notifications.NewService(cfg),
		Metrics:  metrics,
		Logger:   logger,
	})

	d, err := daemon.New(cfg, server.Handler(), logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	group, groupCtx := errgroup.WithContext(signalCtx)
	if err := d.Start(groupCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if opts.Ready != nil {
		opts.Ready(d.Addr())
	}
	group.Go(d.Wait)
	group.Go(func() error {
		<-groupCtx.Done()
		d.Stop()
		return nil
	})

	err = group.Wait()
	logger.Info("sebasite daemon shutting down")
	return err
}

// PIDPath returns the pid file written while the daemon runs.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "sebasited.pid")
}

// ReadPID returns the pid recorded at PIDPath, or 0 when absent.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(PIDPath(cfg))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, backend recordstore.Backend) {
	var pinger preflight.Pinger
	if cfg.RecordStore.Driver != config.RecordStoreDriverOffline {
		pinger = backend
	}
	for _, result := range preflight.RunAll(ctx, cfg, pinger) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run sebasite status for details"),
			logging.String(logging.FieldImpact, "reads fall back to the local cache and writes may be degraded"),
		)
	}
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
