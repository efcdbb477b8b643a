package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/internal/server"
	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
	"github.com/matzehuels/kintree/pkg/store/mongo"
)

// serveOpts holds options for the serve command.
type serveOpts struct {
	addr string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes import, layout, render and the tree store over HTTP.

The cache backend (file, redis, none) and the tree store (memory, file,
mongo) are selected in the [cache] and [store] sections of the config file.`,
		Example: `  # Local development
  kintree serve --addr :9000

  # Shared deployment
  kintree serve --config /etc/kintree/config.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, then :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cc, keyer, err := c.serveCache(ctx)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	defer runner.Close()

	st, err := c.serveStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	cfg := server.Config{
		Addr:         c.Config.Server.Addr,
		MaxBodyBytes: c.Config.Server.MaxBodyBytes,
		Layout:       c.Config.Layout,
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}

	printInfo("Serving on %s", StyleValue.Render(displayAddr(cfg.Addr)))
	return server.New(runner, st, c.Logger, cfg).ListenAndServe(ctx)
}

// serveCache opens the configured cache backend.
func (c *CLI) serveCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Config.Cache.Prefix)

	switch c.Config.Cache.Backend {
	case cacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.Redis)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Info("using redis cache", "addr", c.Config.Cache.Redis.Addr)
		return rc, keyer, nil
	case cacheBackendNone:
		return cache.NewNullCache(), keyer, nil
	default:
		cc, err := c.newCache(false)
		if err != nil {
			return nil, nil, err
		}
		return cc, keyer, nil
	}
}

// serveStore opens the configured tree store.
func (c *CLI) serveStore(ctx context.Context) (store.Store, error) {
	switch c.Config.Store.Backend {
	case storeBackendMongo:
		st, err := mongo.New(ctx, c.Config.Store.Mongo)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using mongo store", "database", c.Config.Store.Mongo.Database)
		return st, nil
	case storeBackendFile:
		dir := c.Config.Store.Dir
		if dir == "" {
			d, err := dataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(d, "trees")
		}
		st, err := store.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using file store", "dir", st.Path())
		return st, nil
	default:
		c.Logger.Warn("using in-memory store; trees are lost on exit")
		return store.NewMemory(), nil
	}
}

// dataDir returns the data directory using XDG standard (~/.local/share/kintree/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// displayAddr turns ":8080" into "http://localhost:8080".
func displayAddr(addr string) string {
	if addr == "" {
		addr = server.DefaultAddr
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
