package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/registry-dashboard/internal/config"
	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/client"
	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/Sternrassler/registry-dashboard/pkg/pagination"
)

var envFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "registry",
		Short:         "Search recently founded companies in the company registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of ./.env")

	rootCmd.AddCommand(newServeCmd(), newExportCmd())
	return rootCmd
}

// app bundles the collaborators shared by all subcommands.
type app struct {
	cfg         *config.Config
	aggregator  *pagination.Aggregator
	credentials auth.Provider
	redis       *redis.Client
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

// loadApp reads configuration, sets up logging and wires the registry
// client, aggregator and credential provider.
func loadApp(ctx context.Context) (*app, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Logging)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	registryClient, err := client.New(client.Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.HTTPTimeout,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create registry client: %w", err)
	}

	aggregator, err := pagination.NewAggregator(registryClient, pagination.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("create aggregator: %w", err)
	}

	a := &app{cfg: cfg, aggregator: aggregator}

	if cfg.RedisURL != "" {
		a.redis, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
		}
	}

	a.credentials, err = newCredentials(cfg, httpClient, a.redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newCredentials prefers a preconfigured token; otherwise tokens come from
// the authenticate handshake and are kept in Redis when available.
func newCredentials(cfg *config.Config, httpClient *http.Client, redisClient *redis.Client) (auth.Provider, error) {
	if cfg.Token != "" {
		return auth.Token(cfg.Token), nil
	}

	authenticator, err := auth.NewAuthenticator(auth.Config{
		BaseURL:    cfg.BaseURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		SystemName: cfg.SystemName,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	var store auth.Store
	if redisClient != nil {
		store = auth.NewRedisStore(redisClient)
	}
	return auth.NewSource(authenticator, store, auth.DefaultTokenTTL), nil
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(addr string) (*redis.Client, error) {
	if !strings.Contains(addr, "://") {
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
