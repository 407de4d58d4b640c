package cli

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"party-trivia/internal/app"
	"party-trivia/internal/config"
	"party-trivia/internal/csvio"
	"party-trivia/internal/domain"
	"party-trivia/internal/infra/gemini"
	"party-trivia/internal/infra/memory"
	pgbank "party-trivia/internal/infra/postgres"
	redisinfra "party-trivia/internal/infra/redis"
)

// backends are the optional external stores named by the config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func connectBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{redis: newRedisClient(cfg)}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

// newRedisClient returns nil when no address is configured.
func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func (b *backends) close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// bankLoader picks Postgres, then a CSV seed file, or nothing.
func bankLoader(cfg config.Config, b *backends) (memory.BankLoader, error) {
	if b.pool != nil {
		return pgbank.NewBankLoader(b.pool), nil
	}
	if cfg.Bank.Seed == "" {
		return nil, nil
	}
	f, err := os.Open(cfg.Bank.Seed)
	if err != nil {
		return nil, fmt.Errorf("open bank seed: %w", err)
	}
	defer f.Close()
	content, err := csvio.Import(f)
	if err != nil {
		return nil, fmt.Errorf("load bank seed %s: %w", cfg.Bank.Seed, err)
	}
	return memory.StaticBankFromContent(content), nil
}

// questionProvider chains the bank and Gemini and falls back to mock
// questions when both come up short.
func questionProvider(cfg config.Config, b *backends) (app.QuestionProvider, error) {
	var chain app.Chain

	loader, err := bankLoader(cfg, b)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
		var bank app.BankRepository
		if b.redis != nil {
			bank = redisinfra.NewBankRepository(b.redis, loader, bankTTL)
		} else {
			bank = memory.NewBankRepository(loader, bankTTL)
		}
		chain = append(chain, app.NewBankProvider(bank, rand.New(rand.NewSource(time.Now().UnixNano()))))
	}

	if cfg.Gemini.IsEnabled() {
		chain = append(chain, gemini.NewProvider(gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
			Timeout: config.TTLDuration(cfg.Gemini.Timeout, 20*time.Second),
		}))
	} else {
		log.Printf("no gemini api key configured")
	}

	if len(chain) == 0 {
		return app.WithFallback(nil), nil
	}
	return app.WithFallback(chain), nil
}

// sessionCatalog adds the categories stored in the Postgres bank to the
// built-in catalog.
func sessionCatalog(ctx context.Context, b *backends) []domain.Category {
	if b.pool == nil {
		return domain.Categories
	}
	names, err := pgbank.NewBankLoader(b.pool).Categories(ctx)
	if err != nil {
		log.Printf("list bank categories: %v", err)
		return domain.Categories
	}
	return app.ExtendCatalog(domain.Categories, names)
}

func sessionOptions(cfg config.Config, catalog []domain.Category) app.SessionOptions {
	rules := app.DefaultRules()
	if cfg.Game.TimerSeconds > 0 {
		rules.TimerDuration = cfg.Game.TimerSeconds
	}
	if cfg.Game.BotTarget > 0 {
		rules.BotTarget = cfg.Game.BotTarget
	}
	return app.SessionOptions{
		Rules:        rules,
		Catalog:      catalog,
		TickInterval: config.TTLDuration(cfg.Game.TickInterval, time.Second),
		BotInterval:  config.TTLDuration(cfg.Game.BotInterval, 3*time.Second),
	}
}
