package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"trivia-session-engine/internal/app"
	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/infra/postgres"
	pgmigrations "trivia-session-engine/internal/infra/postgres/migrations"
	infraredis "trivia-session-engine/internal/infra/redis"
	"trivia-session-engine/internal/selection"
)

func TestPhaseEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuestionLoader(pool)
	if err := loader.SaveQuestions(ctx, sampleBank()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	content := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, time.Hour)
	profiles := infraredis.NewProfileStore(redisClient, 50, time.Hour)
	archive := postgres.NewResultArchive(db)
	selector := selection.NewSelector(content, selection.DefaultConfig(), nil)
	service := app.NewSessionService(sessionStore, selector, app.DefaultSettings(),
		app.WithProfileStore(profiles),
		app.WithResultRecorder(archive),
	)

	started, err := service.StartSession(ctx, app.StartRequest{UserID: "u1", Phase: 1, Locale: "en"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var last domain.AnswerOutcome
	for i := 0; i < started.TotalQuestions; i++ {
		view, err := service.GetCurrentQuestion(ctx, started.SessionID)
		if err != nil {
			t.Fatalf("question %d: %v", i, err)
		}
		if view.Level != 1 {
			t.Fatalf("phase 1 must only serve level 1, got %d", view.Level)
		}
		last, err = service.SubmitAnswer(ctx, started.SessionID, domain.AnswerSubmission{Option: "B", TimeUsedMs: 3000})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if last.Result == nil || !last.Result.Passed || last.Result.Grade != "A+" {
		t.Fatalf("expected a perfect pass, got %+v", last.Result)
	}

	results, err := archive.RecentResults(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("recent results: %v", err)
	}
	if len(results) != 1 || results[0].FinalScore != last.Result.FinalScore {
		t.Fatalf("expected archived result, got %+v", results)
	}

	hints, err := profiles.GetRecentPerformance(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(hints.RecentQuestionIDs) != started.TotalQuestions {
		t.Fatalf("expected %d recent ids, got %d", started.TotalQuestions, len(hints.RecentQuestionIDs))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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

func migrateDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

// sampleBank holds 24 level 1 questions over 8 topics; B is always correct.
func sampleBank() []domain.Question {
	topics := []string{"geography", "history", "science", "sports", "music", "film", "art", "food"}
	var bank []domain.Question
	for _, topic := range topics {
		for i := 0; i < 3; i++ {
			bank = append(bank, domain.Question{
				ID:      fmt.Sprintf("en-1-%s-%d", topic, i),
				Topic:   topic,
				Level:   1,
				Locale:  domain.LocaleEN,
				Prompt:  fmt.Sprintf("%s question %d", topic, i),
				Choices: [4]string{"w", "r", "w", "w"},
				Correct: domain.OptionB,
			})
		}
	}
	return bank
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
