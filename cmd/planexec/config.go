package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/planexec/agent"
	"github.com/smallnest/planexec/llm/openaicompat"
	"github.com/smallnest/planexec/registry"
	"github.com/smallnest/planexec/store"
	storememory "github.com/smallnest/planexec/store/memory"
	storepostgres "github.com/smallnest/planexec/store/postgres"
	storeredis "github.com/smallnest/planexec/store/redis"
	storesqlite "github.com/smallnest/planexec/store/sqlite"
	"github.com/smallnest/planexec/tool"
)

// config collects everything the agent needs, resolved from flags with
// environment fallbacks.
type config struct {
	Model       string
	BaseURL     string
	APIKey      string
	Addr        string
	Registry    string // memory | redis
	Checkpoints string // none | memory | redis | postgres | sqlite
	RedisAddr   string
	PostgresURL string
	SqlitePath  string
	BraveKey    string
	MaxAttempts int
	Forced      bool
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// loadConfig reads flag values off cmd and fills gaps from the environment.
func loadConfig(flagLookup func(string) string) config {
	cfg := config{
		Model:       flagLookup("model"),
		BaseURL:     flagLookup("base-url"),
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Addr:        flagLookup("addr"),
		Registry:    flagLookup("registry"),
		Checkpoints: flagLookup("checkpoints"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		SqlitePath:  getEnv("SQLITE_PATH", "planexec.db"),
		BraveKey:    os.Getenv("BRAVE_API_KEY"),
	}
	if cfg.Model == "" {
		cfg.Model = getEnv("PLANEXEC_MODEL", "gpt-4o-mini")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.Addr == "" {
		cfg.Addr = getEnv("PLANEXEC_ADDR", ":8080")
	}
	if cfg.Registry == "" {
		cfg.Registry = getEnv("PLANEXEC_REGISTRY", "memory")
	}
	if cfg.Checkpoints == "" {
		cfg.Checkpoints = getEnv("PLANEXEC_CHECKPOINTS", "none")
	}
	return cfg
}

func (c config) threadRegistry() (registry.Store, error) {
	switch c.Registry {
	case "memory":
		return registry.NewMemoryStore(), nil
	case "redis":
		return registry.NewRedisStore(registry.RedisOptions{Addr: c.RedisAddr}), nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", c.Registry)
	}
}

func (c config) checkpointStore(ctx context.Context) (store.CheckpointStore, error) {
	switch c.Checkpoints {
	case "none", "":
		return nil, nil
	case "memory":
		return storememory.NewMemoryCheckpointStore(), nil
	case "redis":
		return storeredis.NewRedisCheckpointStore(storeredis.RedisOptions{Addr: c.RedisAddr}), nil
	case "postgres":
		if c.PostgresURL == "" {
			return nil, fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
		cs, err := storepostgres.NewPostgresCheckpointStore(ctx, storepostgres.PostgresOptions{ConnString: c.PostgresURL})
		if err != nil {
			return nil, err
		}
		if err := cs.InitSchema(ctx); err != nil {
			cs.Close()
			return nil, err
		}
		return cs, nil
	case "sqlite":
		cs, err := storesqlite.NewSqliteCheckpointStore(storesqlite.SqliteOptions{Path: c.SqlitePath})
		if err != nil {
			return nil, err
		}
		if err := cs.InitSchema(ctx); err != nil {
			cs.Close()
			return nil, err
		}
		return cs, nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", c.Checkpoints)
	}
}

// buildTools returns the default tool belt. Web search needs a Brave API
// key; without one the agent still reads pages directly.
func (c config) buildTools() ([]tools.Tool, error) {
	set := []tools.Tool{tool.NewWebPage()}
	if c.BraveKey != "" {
		ws, err := tool.NewWebSearch(c.BraveKey)
		if err != nil {
			return nil, err
		}
		set = append(set, ws)
	}
	return set, nil
}

// buildAgent wires the model client, tools, registry, and checkpoint
// store into a ready agent.
func (c config) buildAgent(ctx context.Context, threads registry.Store) (*agent.Agent, error) {
	client, err := openaicompat.New(openaicompat.Options{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Model:   c.Model,
	})
	if err != nil {
		return nil, err
	}

	toolSet, err := c.buildTools()
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{
		agent.WithThreadRegistry(threads),
		agent.WithForcedSchema(c.Forced),
	}
	if c.MaxAttempts > 0 {
		opts = append(opts, agent.WithMaxAttempts(c.MaxAttempts))
	}
	if cs, err := c.checkpointStore(ctx); err != nil {
		return nil, err
	} else if cs != nil {
		opts = append(opts, agent.WithCheckpointStore(cs))
	}

	return agent.New(client, toolSet, opts...)
}
