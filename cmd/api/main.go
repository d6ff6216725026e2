package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QA_Community/internal/config"
	"QA_Community/internal/middleware"
	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/repository/mysql"
	"QA_Community/internal/repository/redis"
	"QA_Community/internal/router"
	"QA_Community/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	pkg.SetupLogger(cfg.Env)
	log := pkg.Logger

	telemetry, err := pkg.SetupTracing(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize otel")
	}
	if telemetry == nil {
		log.Info("otel disabled (no endpoint configured)")
	}

	if err := pkg.InitID(cfg.NodeID); err != nil {
		log.WithError(err).Fatal("failed to initialize snowflake id generator")
	}
	pkg.SetSecrets(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)

	if err := mysql.InitDB(cfg.MySQL.DSN); err != nil {
		log.WithError(err).Fatal("failed to connect to mysql")
	}
	defer mysql.Close()
	// 自动建表
	if err := mysql.AutoMigrate(mysql.DB); err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}

	if err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redis.Close()

	hub := notify.NewHub()
	bus := notify.NewBus(hub)
	if cfg.Notify.RedisChannel != "" {
		relay := notify.NewRedisRelay(redis.Client, cfg.Notify.RedisChannel, hub)
		bus.Add(relay)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.WithError(err).Error("notify relay stopped")
			}
		}()
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		bus.Add(notify.NewKafkaSink(producer))
		log.WithField("topic", producer.Topic()).Info("kafka event export enabled")
	}

	questions := service.NewQuestionService(mysql.DB, redis.Client)
	users := service.NewUserService(mysql.DB, redis.Client)
	mailer := pkg.NewSMTPMailer(pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(float64(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		go limiter.Run(ctx)
	}

	var traceService string
	if cfg.OTel.Enabled() {
		traceService = cfg.OTel.ServiceName
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.InitRouter(router.Deps{
		Communities:  service.NewCommunityService(mysql.DB),
		Collections:  service.NewCollectionService(mysql.DB, questions),
		Questions:    questions,
		Users:        users,
		Reset:        service.NewResetService(mysql.DB, redis.Client, users, mailer),
		Hub:          hub,
		Publisher:    bus,
		AuthRequired: cfg.Auth.Required,
		Limiter:      limiter,
		TraceService: traceService,
		Ping: func(ctx context.Context) error {
			sqlDB, err := mysql.DB.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return redis.Client.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown error")
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("otel shutdown error")
	}
	log.Info("shutdown complete")
}
