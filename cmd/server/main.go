package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/togisoft/t-force/internal/auth"
	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/database"
	"github.com/togisoft/t-force/internal/handler"
	"github.com/togisoft/t-force/internal/hub"
	"github.com/togisoft/t-force/internal/kafka"
	"github.com/togisoft/t-force/internal/log"
	"github.com/togisoft/t-force/internal/presence"
	"github.com/togisoft/t-force/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "t-force",
	})
	logger := log.L()

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db,
		&store.MessageRecord{},
		&store.ReactionRecord{},
		&store.MembershipRecord{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	repo := store.NewGormChatRepository(db)
	dispatcher := store.NewDispatcher(repo, cfg.Hub.PersistQueueSize)

	var feed kafka.MessageProducer
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		defer producer.Close()
		feed = producer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer connected")
	}

	var online *presence.RedisPresence
	if cfg.Redis.Enabled {
		online, err = presence.NewRedisPresence(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer online.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis presence connected")
	}

	chatHub := hub.New(cfg.Hub, dispatcher, feed)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	wsHandler := handler.NewWSHandler(chatHub, verifier, online, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(repo, verifier)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger))

	wsHandler.RegisterRoutes(r)
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if online != nil {
		online.StartHeartbeat(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		return chatHub.RunSweeper(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
