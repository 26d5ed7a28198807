package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowgridhq/flowgrid/internal/httpapi"
	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/pipeline"
	"github.com/flowgridhq/flowgrid/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configFile string
		redisAddr  string
		mongoURI   string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Exposes the layout pipeline under /v1. With --redis the result cache is
shared across instances; with --mongo diagrams can be stored and laid out
in place under /v1/diagrams. Both default to the values in the config file,
falling back to a local file cache and no store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, configFile, redisAddr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML config file")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for a shared cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for diagram storage")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, configFile, redisAddr, mongoURI string, noCache bool) error {
	cfg, err := pipeline.LoadFileConfig(configFile)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
	if mongoURI != "" {
		cfg.Mongo.URI = mongoURI
	}

	ca, err := c.newServerCache(ctx, cfg.Redis, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(ca, nil, c.Logger)
	defer runner.Close()

	var st store.Store
	if cfg.Mongo.URI != "" {
		ms, err := store.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return fmt.Errorf("connect diagram store: %w", err)
		}
		defer ms.Close(context.Background())
		st = ms
		c.Logger.Info("diagram store connected", "database", cfg.Mongo.Database)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(runner, st, c.Logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		c.Logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newServerCache picks the cache backend for serve: Redis when configured,
// otherwise the local file cache.
func (c *CLI) newServerCache(ctx context.Context, redisCfg cache.RedisConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisCfg.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("redis cache connected", "addr", redisCfg.Addr)
		return rc, nil
	}
	return newCache(false)
}
