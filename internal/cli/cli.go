package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/internal/config"
	"github.com/matzehuels/haview/pkg/buildinfo"
	"github.com/matzehuels/haview/pkg/cache"
	"github.com/matzehuels/haview/pkg/layout"
	"github.com/matzehuels/haview/pkg/observability"
	"github.com/matzehuels/haview/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "haview"
)

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

	configPath string
	flags      sourceFlags
}

// sourceFlags are the persistent flags that override config.toml.
type sourceFlags struct {
	url      string
	user     string
	password string
	file     string
	engine   string
	cache    string
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
		Use:   appName,
		Short: "haview shows HAProxy topologies as navigable diagrams",
		Long: `haview fetches the topology of an HAProxy configuration (frontends, ACLs,
backends and servers) and draws it as a layered diagram with a clickable overview.`,
		Version:      buildinfo.Resolved(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := observability.NewLogHooks(c.Logger)
			observability.SetViewHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: "+config.Path()+")")
	pf.StringVar(&c.flags.url, "url", "", "base URL of the configuration API")
	pf.StringVar(&c.flags.user, "user", "", "HTTP basic auth user")
	pf.StringVar(&c.flags.password, "password", "", "HTTP basic auth password")
	pf.StringVarP(&c.flags.file, "file", "f", "", "read a local haproxy.cfg instead of the API")
	pf.StringVar(&c.flags.engine, "engine", "", "layout engine: dot, level")
	pf.StringVar(&c.flags.cache, "cache", "", "layout cache: none, file, memory, redis")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.pullCommand())
	root.AddCommand(c.pushCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads config.toml and the environment, then applies the flags
// that were set explicitly on cmd.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CLI) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.Source.URL = c.flags.url
		cfg.Source.File = ""
	}
	if changed("user") {
		cfg.Source.User = c.flags.user
	}
	if changed("password") {
		cfg.Source.Password = c.flags.password
	}
	if changed("file") {
		cfg.Source.File = c.flags.file
	}
	if changed("engine") {
		cfg.Layout.Engine = c.flags.engine
	}
	if changed("cache") {
		cfg.Cache.Backend = c.flags.cache
	}
}

// =============================================================================
// Factories
// =============================================================================

// newSource returns the local file source when a file is configured and the
// HTTP client otherwise.
func (c *CLI) newSource(cfg *config.Config) (source.Source, error) {
	if cfg.Source.File != "" {
		return source.NewLocalSource(cfg.Source.File, source.WithLocalLogger(c.Logger)), nil
	}
	opts := []source.ClientOption{
		source.WithTimeout(cfg.Source.Timeout.Duration),
		source.WithClientLogger(c.Logger),
	}
	if cfg.Source.User != "" {
		opts = append(opts, source.WithBasicAuth(cfg.Source.User, cfg.Source.Password))
	}
	return source.NewHTTPClient(cfg.Source.URL, opts...)
}

// newCache opens the configured cache backend. A cache that cannot be
// opened is logged and replaced by the null cache: caching is never
// required for a command to work.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	var (
		store cache.Cache
		err   error
	)
	switch cfg.Cache.Backend {
	case config.CacheFile:
		var dir string
		if dir, err = config.CacheDir(); err == nil {
			store, err = cache.NewFileCache(dir)
		}
	case config.CacheMemory:
		store, err = cache.NewMemoryCache(cfg.Cache.MemorySize)
	case config.CacheRedis:
		store, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
		})
	default:
		return cache.NewNullCache()
	}
	if err != nil {
		c.Logger.Warn("layout cache disabled", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return store
}

// engineHandle is a cached layout engine and the resources to release with it.
type engineHandle struct {
	layout.Engine
	base  layout.Engine
	store cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// Close releases the cache and the underlying engine.
func (h *engineHandle) Close() error {
	if closer, ok := h.base.(io.Closer); ok {
		_ = closer.Close()
	}
	return h.store.Close()
}

// newEngine builds the configured layout engine wrapped by the layout cache.
func (c *CLI) newEngine(ctx context.Context, cfg *config.Config) (*engineHandle, error) {
	base, err := layout.New(cfg.Layout.Engine)
	if err != nil {
		return nil, err
	}
	store := c.newCache(ctx, cfg)
	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Backend == config.CacheRedis {
		keyer = cache.NewScopedKeyer(keyer, buildinfo.Resolved())
	}
	cached := layout.NewCachedEngine(base, store,
		layout.WithKeyer(keyer),
		layout.WithTTL(cfg.Cache.TTL.Duration),
		layout.WithLogger(c.Logger),
	)
	return &engineHandle{Engine: cached, base: base, store: store, keyer: keyer, ttl: cfg.Cache.TTL.Duration}, nil
}
