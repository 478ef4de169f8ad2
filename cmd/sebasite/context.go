package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sebasite/internal/admin"
	"sebasite/internal/config"
	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/localcache"
	"sebasite/internal/logging"
	"sebasite/internal/records"
	"sebasite/internal/recordstore"
	"sebasite/internal/session"
)

type commandContext struct {
	configFlag *string
	outputFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, outputFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		outputFlag: outputFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the record store and cache a command works against. The
// CLI logs warnings to stderr so degraded reads stay visible.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend recordstore.Backend
	cache   localcache.Store
}

func (c *commandContext) openRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	backend, err := recordstore.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	cache, err := localcache.Open(cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, backend: backend, cache: cache}, nil
}

func (c *commandContext) withRuntime(fn func(*runtime) error) error {
	rt, err := c.openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func (r *runtime) Close() {
	_ = r.cache.Close()
	_ = r.backend.Close()
}

func (r *runtime) projects() *datasource.Collection[records.Project] {
	return datasource.Projects(r.backend, r.cache, r.logger)
}

func (r *runtime) news(limit int) *datasource.Collection[records.News] {
	return datasource.News(r.backend, r.cache, limit, r.logger)
}

func (r *runtime) imageOptions() imaging.Options {
	return imaging.Options{
		MaxDimension: r.cfg.Images.MaxDimension,
		Quality:      r.cfg.Images.Quality,
		MaxBytes:     r.cfg.MaxUploadBytes(),
	}
}

func (r *runtime) controller() *admin.Controller {
	return admin.New(r.projects(), r.news(0), admin.Options{
		Images:  r.imageOptions(),
		Workers: r.cfg.Images.Workers,
		Logger:  r.logger,
	})
}

func (r *runtime) session(cmd *cobra.Command) (*session.Session, error) {
	sess := session.New(r.cache, session.Options{
		Password:        r.cfg.Admin.Password,
		DefaultLanguage: r.cfg.Site.DefaultLanguage,
	}, r.logger)
	if err := sess.Init(cmd.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shorten trims long values such as data URIs for table cells.
func shorten(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
