package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"party-trivia/internal/app"
	"party-trivia/internal/config"
	"party-trivia/internal/infra/memory"
	redisinfra "party-trivia/internal/infra/redis"
	transport "party-trivia/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	provider, err := questionProvider(cfg, b)
	if err != nil {
		return err
	}

	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	var (
		store       app.SessionRepository
		scores      app.ScoreSink
		leaderboard transport.LeaderboardReader
	)
	if b.redis != nil {
		store = redisinfra.NewSessionStore(b.redis, redisTTL)
		lb := redisinfra.NewLeaderboard(b.redis, redisTTL)
		scores, leaderboard = lb, lb
	} else {
		store = memory.NewSessionStore()
	}
	service := app.NewGameService(store, provider, sessionOptions(cfg, sessionCatalog(ctx, b)), scores)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(transport.Container{Service: service, Leaderboard: leaderboard}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting trivia server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
