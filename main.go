package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-management/app/config"
	"campus-management/app/database"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/payroll"
	"campus-management/app/server"
	"campus-management/app/services"
	"campus-management/app/services/activity"
	"campus-management/app/services/cache"
	"campus-management/app/utils"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogging(cfg)

	time.Local = cfg.Location()
	log.Info().Str("timezone", time.Local.String()).Msg("application time zone set")

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Activity logs always land in Postgres; Mongo is an optional mirror.
	var mirror *activity.MongoSink
	if cfg.Mongo.URI != "" {
		client, sink, err := activity.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Warn().Err(err).Msg("activity log mirror disabled")
		} else {
			mirror = sink
			defer client.Disconnect(context.Background())
		}
	}
	var audit *activity.Recorder
	if mirror != nil {
		audit = activity.NewRecorder(activity.NewPostgresSink(db), mirror)
	} else {
		audit = activity.NewRecorder(activity.NewPostgresSink(db))
	}

	var reportCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("report cache disabled")
		} else {
			reportCache = cache.NewRedis(client, "campus:")
			defer client.Close()
			log.Info().Str("addr", cfg.Redis.Addr).Msg("report cache connected")
		}
	}

	limiter := utils.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var scheduler *services.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = newScheduler(cfg, db, mirror, limiter)
		scheduler.Start()
	}

	app := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Tokens:  auth.NewTokenManager(cfg.JWT),
		Audit:   audit,
		Cache:   reportCache,
		Limiter: limiter,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
}

func newScheduler(cfg *config.Config, db *sqlx.DB, mirror *activity.MongoSink, limiter *utils.RateLimiter) *services.Scheduler {
	s := services.NewScheduler(cfg.Location())

	jobs := []services.Job{
		{
			Name: "payroll-generation",
			Spec: cfg.PayrollCron,
			Run: func(ctx context.Context) error {
				return payroll.GenerateAll(ctx, db, time.Now())
			},
		},
		{
			Name: "activity-log-purge",
			Spec: "30 3 * * *",
			Run: func(ctx context.Context) error {
				now := time.Now()
				n, err := activity.Purge(ctx, db, cfg.ActivityRetentionDays, now)
				if err != nil {
					return err
				}
				log.Info().Int64("removed", n).Msg("purged activity logs")
				if mirror != nil && cfg.ActivityRetentionDays > 0 {
					cutoff := now.AddDate(0, 0, -cfg.ActivityRetentionDays)
					if _, err := mirror.PurgeBefore(ctx, cutoff); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:    "rate-limiter-cleanup",
			Spec:    "@hourly",
			Timeout: time.Minute,
			Run: func(context.Context) error {
				removed := limiter.Cleanup(time.Hour)
				log.Debug().Int("removed", removed).Int("tracked", limiter.Size()).Msg("rate limiter cleanup")
				return nil
			},
		},
	}
	for _, j := range jobs {
		if err := s.Add(j); err != nil {
			log.Fatal().Err(err).Msg("invalid job schedule")
		}
	}
	return s
}
