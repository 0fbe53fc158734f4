package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bookofh-service/internal/app"
	"bookofh-service/internal/config"
	"bookofh-service/internal/domain"
	"bookofh-service/internal/infra/memory"
	"bookofh-service/internal/infra/postgres"
	infraredis "bookofh-service/internal/infra/redis"
	"bookofh-service/internal/logger"
	"bookofh-service/internal/scoring"
	transport "bookofh-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the questionnaire server",
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
	log := newLogger(cfg)

	scoringCfg, err := scoring.Load(cfg.Scoring.Path)
	if err != nil {
		return err
	}
	for _, w := range scoringCfg.Warnings() {
		log.Warn().Str("scoring", scoringCfg.Name).Msg(w)
	}
	engine := scoring.NewEngine(scoringCfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	seed := seedUsers(cfg)
	var (
		users app.UserDirectory
		store app.QuestionnaireStore
	)
	if pool != nil {
		dir := postgres.NewUserDirectory(pool)
		if err := dir.Seed(ctx, seed...); err != nil {
			return err
		}
		users = dir
		store = postgres.NewQuestionnaireStore(pool)
	} else {
		log.Warn().Msg("postgres not configured, questionnaires are kept in memory")
		users = memory.NewUserDirectory(seed...)
		store = memory.NewQuestionnaireStore()
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	lockTTL := config.TTLDuration(cfg.Lock.TTL, 10*time.Second)
	var locks app.SubmissionLocker
	if redisClient != nil {
		store = infraredis.NewQuestionnaireCache(redisClient, store, config.TTLDuration(cfg.Redis.TTL, cacheTTL))
		locks = infraredis.NewSubmissionLocker(redisClient, lockTTL)
	} else {
		store = memory.NewCachedQuestionnaires(store, cacheTTL)
		locks = memory.NewSubmissionLocker()
	}

	service := app.NewQuestionnaireService(engine, users, store, locks, log)

	mux := http.NewServeMux()
	transport.NewHandler(service, log).Register(mux)
	mux.HandleFunc("/ws/preview", transport.NewWSHandler(service, log).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Info().
		Str("port", finalPort).
		Str("scoring", scoringCfg.Name).
		Str("scoring_version", scoringCfg.Version).
		Bool("postgres", pool != nil).
		Bool("redis", redisClient != nil).
		Msg("starting questionnaire service")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
}

func seedUsers(cfg config.Config) []domain.User {
	users := make([]domain.User, 0, len(cfg.Users.Seed))
	for _, u := range cfg.Users.Seed {
		users = append(users, domain.User{ID: u.ID, Email: u.Email})
	}
	return users
}
