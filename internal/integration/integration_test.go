package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bookofh-service/internal/app"
	"bookofh-service/internal/domain"
	"bookofh-service/internal/infra/postgres"
	pgmigrations "bookofh-service/internal/infra/postgres/migrations"
	infraredis "bookofh-service/internal/infra/redis"
	"bookofh-service/internal/scoring"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSubmitQuestionnaireEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	users := postgres.NewUserDirectory(pool)
	alice, err := users.Create(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(ctx, "alice@example.com"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected duplicate email rejected, got %v", err)
	}

	store := infraredis.NewQuestionnaireCache(redisClient, postgres.NewQuestionnaireStore(pool), 5*time.Minute)
	locks := infraredis.NewSubmissionLocker(redisClient, 5*time.Second)
	service := app.NewQuestionnaireService(scoring.NewEngine(scoring.Reference()), users, store, locks, zerolog.Nop())

	first, err := service.Submit(ctx, alice.ID, []domain.Answer{
		{QuestionID: "q_spend_12mo", QuestionText: "Spend", SelectedOptions: []string{"$15,000 – $40,000"}},
		{QuestionID: "q_purchase_mix", QuestionText: "Mix", SelectedOptions: []string{"home", "fine_jewellery_watches"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Score != 27 || first.Band != "Beginner" {
		t.Fatalf("expected 27/Beginner, got %d/%s", first.Score, first.Band)
	}

	second, err := service.Submit(ctx, alice.ID, fullMarks())
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID || second.Score != 100 || second.Band != "Insider" {
		t.Fatalf("expected same id with full marks, got %+v", second)
	}

	// Read straight from Postgres to bypass the Redis cache.
	stored, err := postgres.NewQuestionnaireStore(pool).GetByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get from pg: %v", err)
	}
	if stored.ID != first.ID || stored.Score != 100 || len(stored.Answers) != len(fullMarks()) {
		t.Fatalf("unexpected stored row: %+v", stored)
	}
	if !stored.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at preserved, got %v vs %v", stored.CreatedAt, first.CreatedAt)
	}
	if stored.CategoryScores["spend_12mo"] != 30 {
		t.Fatalf("unexpected category scores: %+v", stored.CategoryScores)
	}

	if _, err := service.Submit(ctx, "ghost", nil); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func fullMarks() []domain.Answer {
	return []domain.Answer{
		{QuestionID: "q_spend_12mo", SelectedOptions: []string{"40000_plus"}},
		{QuestionID: "q_sa_tenure", SelectedOptions: []string{"2_plus_years"}},
		{QuestionID: "q_sa_switches", SelectedOptions: []string{"no_switches"}},
		{QuestionID: "q_purchase_mix", SelectedOptions: []string{"accessories_slgs", "leather_goods", "rtw_shoes", "fine_jewellery_watches", "home", "equestrian"}},
		{QuestionID: "q_visit_frequency", SelectedOptions: []string{"weekly_plus"}},
		{QuestionID: "q_wishlist_active", SelectedOptions: []string{"Yes"}},
		{QuestionID: "q_tester_bag", SelectedOptions: []string{"Yes"}},
		{QuestionID: "q_store_vibe", SelectedOptions: []string{"patient_engaged"}},
		{QuestionID: "q_cancellations", SelectedOptions: []string{"Yes"}},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "bookofh", "POSTGRES_PASSWORD": "bookofhpass", "POSTGRES_DB": "bookofh"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://bookofh:bookofhpass@%s:%s/bookofh?sslmode=disable", host, port.Port())
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

// migrateSchema applies the same migrations as the `migrate` command, twice,
// to check they are idempotent.
func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := migrator.Migrate(ctx); err != nil {
			t.Fatalf("migrate: %v", err)
		}
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
