// Package cli implements the kintree command-line interface.
//
// Every command loads the TOML config (see package config), applies the
// global --store and --dsn overrides and opens the selected store. The
// commands then work through [service.Service], the same layer that backs
// the HTTP API started by "kintree serve".
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/service"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/memory"
	"github.com/matzehuels/kintree/pkg/store/mongostore"
	"github.com/matzehuels/kintree/pkg/store/sqlstore"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "kintree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	driver     string
	dsn        string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Kintree keeps family trees and lays them out",
		Long:         `Kintree records family members and their relationships, infers spouses, parents and children from the recorded edges, and lays the tree out as JSON, SVG or Graphviz DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default: <user config dir>/kintree/config.toml)")
	pf.StringVar(&c.driver, "store", "", "store driver: memory, sqlite, postgres, mongo")
	pf.StringVar(&c.dsn, "dsn", "", "store connection string (file path for sqlite)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.membersCommand())
	root.AddCommand(c.familyCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Store
// =============================================================================

// loadConfig reads the config file and applies the global flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.driver != "" {
		cfg.Store.Driver = c.driver
	}
	if c.dsn != "" {
		cfg.Store.DSN = c.dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects to the configured backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite, config.DriverPostgres:
		d, err := sqlstore.DialectFor(cfg.Driver)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.Open(ctx, d, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongostore.Open(ctx, cfg.DSN, cfg.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidRequest, "unknown store driver %q", cfg.Driver)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newCache opens the configured cache backend. A file cache whose directory
// cannot be determined degrades to no caching.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// newRunner creates a pipeline runner whose keys are scoped to the store, so
// several stores can share one cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	keyer := cache.NewScopedKeyer(nil, cacheScope(cfg.Store))
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = cfg.Cache.TTL
	return r, nil
}

func cacheScope(s config.StoreConfig) string {
	if s.Driver == config.DriverMongo {
		return s.Driver + ":" + s.Database + ":"
	}
	return s.Driver + ":"
}

// =============================================================================
// App - Opened Resources
// =============================================================================

// app bundles the resources a command needs. Close releases all of them.
type app struct {
	cfg *config.Config
	svc *service.Service
}

// open loads the config and opens the store and the pipeline runner.
func (c *CLI) open(ctx context.Context, noCache bool) (*app, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		s.Close()
		return nil, err
	}
	c.Logger.Debug("store opened", "driver", cfg.Store.Driver, "cache", cfg.Cache.Backend)
	return &app{cfg: cfg, svc: service.New(s, runner, c.Logger)}, nil
}

// openPersistent is open for commands whose effect must outlive the process.
// It warns when the memory store would discard their work.
func (c *CLI) openPersistent(ctx context.Context) (*app, error) {
	a, err := c.open(ctx, true)
	if err != nil {
		return nil, err
	}
	if a.cfg.Store.Driver == config.DriverMemory {
		sayWarn("memory store: changes are discarded on exit (use --store sqlite --dsn kintree.db)")
	}
	return a, nil
}

func (a *app) Close() error {
	rerr := a.svc.Runner().Close()
	if err := a.svc.Store().Close(); err != nil {
		return err
	}
	return rerr
}

// layoutOptions returns the configured layout defaults.
func layoutOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Placer: cfg.Layout.Placer,
		Layout: layout.Options{
			Direction: cfg.Layout.Direction,
			RankSep:   cfg.Layout.RankSep,
			NodeSep:   cfg.Layout.NodeSep,
		},
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/kintree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
