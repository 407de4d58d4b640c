package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"party-trivia/internal/app"
	"party-trivia/internal/csvio"
	"party-trivia/internal/domain"
	pgbank "party-trivia/internal/infra/postgres"
	pgmigrations "party-trivia/internal/infra/postgres/migrations"
	infraredis "party-trivia/internal/infra/redis"
)

const bankSheet = `category,question,option1,option2,option3,option4,correctanswer,type
Science,What is H2O?,Salt,Water,Sand,Air,Water,
Science,The sun is a star.,True,False,,,True,
Science,Closest planet to the sun?,Venus,Mercury,Mars,Earth,Mercury,
History,Order the ages,Stone,Bronze,Iron,,Stone|Bronze|Iron,PUZZLE
History,Who crossed the Rubicon?,Caesar,Nero,Cato,Brutus,Caesar,
`

func TestBankBackedGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedBank(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgbank.NewBankLoader(pool)
	names, err := loader.Categories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(names) != 2 || names[0] != "History" || names[1] != "Science" {
		t.Fatalf("unexpected bank categories %v", names)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	bank := infraredis.NewBankRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	leaderboard := infraredis.NewLeaderboard(redisClient, 5*time.Minute)

	science, _ := domain.CategoryByID("science")
	history, _ := domain.CategoryByID("history")
	provider := app.WithFallback(app.NewBankProvider(bank, rand.New(rand.NewSource(1))))
	catalog := app.ExtendCatalog(nil, names)
	if len(catalog) != 2 || catalog[0] != history || catalog[1] != science {
		t.Fatalf("expected bank catalog to resolve to catalog entries, got %+v", catalog)
	}
	service := app.NewGameService(sessionStore, provider, app.SessionOptions{
		Catalog: catalog,
		Ticker:  func(time.Duration, func()) func() { return func() {} },
	}, leaderboard)

	session := service.Create(ctx)
	defer service.Close(ctx, session.ID())
	session.InitHost()
	if err := session.GenerateContent(ctx, 2, 2); err != nil {
		t.Fatalf("generate: %v", err)
	}
	st := session.Snapshot()
	if st.Phase != domain.PhaseReview || len(st.Rounds) != 2 {
		t.Fatalf("expected reviewed 2-round plan, got %s with %d rounds", st.Phase, len(st.Rounds))
	}
	for _, r := range st.Rounds {
		for _, q := range r.Questions {
			if strings.HasPrefix(q.ID, "mock-") {
				t.Fatalf("round %d fell back to mock content", r.RoundNumber)
			}
		}
	}
	if n := redisClient.Exists(ctx, "bank:science", "bank:history").Val(); n != 2 {
		t.Fatalf("expected both banks cached in redis, got %d", n)
	}

	st, err = service.Confirm(ctx, session.ID())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if byPin, err := service.ByPin(ctx, st.GamePin); err != nil || byPin.ID() != session.ID() {
		t.Fatalf("pin lookup: %v", err)
	}

	self := session.HostJoinAsPlayer("Alice", domain.Avatar{}).CurrentPlayerID
	session.StartGame()
	st = session.SelectCategory("")
	st = session.SubmitAnswer(app.CorrectAnswer(*st.CurrentQuestion))
	if p, _ := st.Player(self); p.Score == 0 {
		t.Fatalf("expected points for a correct answer")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		top, err := leaderboard.Top(ctx, session.ID(), 1)
		if err == nil && len(top) == 1 && top[0].PlayerID == self && top[0].Score > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("leaderboard never mirrored: %+v, %v", top, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	dropBank(t, ctx, pgURL, "history")
	if err := bank.Invalidate(ctx, "History"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := bank.Questions(ctx, "History"); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected dropped category gone, got %v", err)
	}
	if names, err := loader.Categories(ctx); err != nil || len(names) != 1 || names[0] != "Science" {
		t.Fatalf("expected only science left, got %v (%v)", names, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "trivia"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/trivia?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedBank(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	content, err := csvio.ImportString(bankSheet)
	if err != nil {
		t.Fatalf("parse bank sheet: %v", err)
	}
	if _, err := pgbank.NewBankWriter(db).Save(ctx, content); err != nil {
		t.Fatalf("save bank: %v", err)
	}
	// saving twice must not duplicate rows
	if _, err := pgbank.NewBankWriter(db).Save(ctx, content); err != nil {
		t.Fatalf("save bank again: %v", err)
	}
}

func dropBank(t *testing.T, ctx context.Context, dsn, category string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	dropped, err := pgbank.NewBankWriter(db).Delete(ctx, category)
	if err != nil {
		t.Fatalf("delete bank: %v", err)
	}
	if dropped != 2 {
		t.Fatalf("expected 2 %s rows dropped, got %d", category, dropped)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
