package cli

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-session-engine/internal/app"
	"trivia-session-engine/internal/config"
	"trivia-session-engine/internal/domain"
	"trivia-session-engine/internal/infra/memory"
	"trivia-session-engine/internal/infra/mongodb"
	"trivia-session-engine/internal/infra/postgres"
	"trivia-session-engine/internal/infra/rabbitmq"
	redisstore "trivia-session-engine/internal/infra/redis"
	"trivia-session-engine/internal/metrics"
	"trivia-session-engine/internal/scoring"
	"trivia-session-engine/internal/selection"
	transport "trivia-session-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	settings := cfg.SessionSettings()
	redisTTL := cfg.SessionStoreTTL()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	switch {
	case pool != nil:
		loader = postgres.NewQuestionLoader(pool)
	case cfg.Mongo.URI != "":
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		dbName := cfg.Mongo.Database
		if dbName == "" {
			dbName = "trivia"
		}
		loader = mongodb.NewQuestionLoader(client.Database(dbName))
	default:
		log.Printf("no question bank configured, serving the built-in sample bank")
	}

	cacheTTL := config.TTLDuration(cfg.Content.CacheTTL, 10*time.Minute)
	var content selection.ContentRepository
	if redisClient != nil {
		content = redisstore.NewQuestionRepository(redisClient, loader, cacheTTL)
	} else {
		content = memory.NewQuestionRepository(loader, cacheTTL)
	}

	var store app.SessionStore
	var profiles app.ProfileStore
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
		profiles = redisstore.NewProfileStore(redisClient, memory.DefaultProfileWindow, 30*24*time.Hour)
	} else {
		store = memory.NewSessionStore()
		profiles = memory.NewProfileStore(memory.DefaultProfileWindow)
	}

	phases := cfg.Phases()
	selector := selection.NewSelector(content, cfg.SelectionConfig(), rand.New(rand.NewSource(cfg.SelectionSeed())))
	opts := []app.ServiceOption{
		app.WithProfileStore(profiles),
		app.WithScoringEngine(scoring.NewEngine(scoring.DefaultConfig(), phases)),
	}

	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		opts = append(opts, app.WithResultRecorder(postgres.NewResultArchive(db)))
	}

	if cfg.RabbitMQ.URL != "" {
		exchange := cfg.RabbitMQ.Exchange
		if exchange == "" {
			exchange = "trivia.sessions"
		}
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, app.WithEventPublisher(publisher))
	}

	service := app.NewSessionService(store, selector, settings, opts...)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go app.NewSweeper(service, settings.SweepInterval).Run(sweepCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/ws", transport.NewWSHandler(service).ServeWS)
	transport.NewHandler(service, phases).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting session engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

var sampleTopics = []string{"geography", "history", "science", "sports", "music", "film"}

// sampleQuestions builds a placeholder bank for every locale and level so the server runs
// without a database. Production deployments load from Postgres or MongoDB.
func sampleQuestions() []domain.Question {
	var bank []domain.Question
	for _, locale := range domain.SupportedLocales {
		for level := 1; level <= 5; level++ {
			for _, topic := range sampleTopics {
				for i := 0; i < 3; i++ {
					n := len(bank)
					var choices [4]string
					for c := range choices {
						choices[c] = fmt.Sprintf("answer %d", c+1)
					}
					bank = append(bank, domain.Question{
						ID:      fmt.Sprintf("sample-%s-%d-%s-%d", locale, level, topic, i),
						Topic:   topic,
						Level:   level,
						Locale:  locale,
						Prompt:  fmt.Sprintf("[%s] %s question %d, level %d", locale, topic, i+1, level),
						Choices: choices,
						Correct: domain.Options[n%len(domain.Options)],
					})
				}
			}
		}
	}
	return bank
}
