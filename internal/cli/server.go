package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csv-quiz-service/internal/app"
	"csv-quiz-service/internal/config"
	"csv-quiz-service/internal/infra/csvfile"
	"csv-quiz-service/internal/infra/memory"
	"csv-quiz-service/internal/infra/postgres"
	redisstore "csv-quiz-service/internal/infra/redis"
	transport "csv-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	sessionTTL := config.TTLDuration(cfg.Server.SessionTTL, 2*time.Hour)

	var opts []app.Option
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		opts = append(opts, app.WithArchive(postgres.NewAttemptArchive(pool)))
	}

	questions := memory.NewQuestionCache(
		csvfile.NewQuestionStore(cfg.Storage.QuestionsPath),
		config.TTLDuration(cfg.Storage.CacheTTL, 0),
	)
	leaderboard := csvfile.NewLeaderboardStore(cfg.Storage.LeaderboardPath)

	var sessions app.SessionRepository
	var stats app.WrongAnswerRecorder
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL))
		stats = redisstore.NewStatsStore(redisClient)
	} else {
		sessions = memory.NewSessionStore(sessionTTL)
		stats = csvfile.NewStatsStore(cfg.Storage.StatsPath)
	}

	settings := app.Settings{
		SampleSize:        cfg.Quiz.SampleSize,
		Penalty:           cfg.Quiz.Penalty,
		ImmediateFeedback: cfg.Quiz.ImmediateFeedback,
		TimeLimit:         config.TTLDuration(cfg.Quiz.TimeLimit, 30*time.Second),
		LeaderboardLimit:  cfg.Quiz.LeaderboardLimit,
	}
	service := app.NewQuizService(settings, questions, leaderboard, stats, opts...)

	if _, err := questions.Questions(ctx); err != nil {
		// the admin can still upload a bank, so this is not fatal
		log.Printf("question bank %s not loaded: %v", cfg.Storage.QuestionsPath, err)
	}

	admin := transport.NewAdminAuth(
		cfg.Admin.Username,
		cfg.Admin.PasswordHash,
		cfg.Admin.TokenSecret,
		config.TTLDuration(cfg.Admin.TokenTTL, 8*time.Hour),
		cfg.Server.CookieSecure,
	)
	if !admin.Enabled() {
		log.Printf("admin.password_hash or admin.token_secret empty; admin pages disabled")
	}

	handler := transport.NewHandler(service, sessions, admin, transport.Options{
		StaticDir:      cfg.Server.StaticDir,
		CookieSecure:   cfg.Server.CookieSecure,
		SessionTTL:     sessionTTL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler.Routes(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: it would cut off the websocket leaderboard feed
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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
