package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"unisphere/internal/comments"
	"unisphere/internal/config"
	"unisphere/internal/db"
	"unisphere/internal/feed"
	"unisphere/internal/handlers"
	"unisphere/internal/logger"
	"unisphere/internal/router"
	"unisphere/internal/services"
	"unisphere/internal/store"
)

const sentimentCacheSize = 1024

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	profiles := store.NewProfileStore(conn)
	posts := store.NewPostStore(conn)
	complaints := store.NewComplaintStore(conn)

	// read-only view for the polling feed and the stats worker
	reader := store.NewCommentStore(conn, nil, log)
	changes, err := feed.Open(feed.Options{
		Driver:       cfg.FeedDriver,
		RedisURL:     cfg.RedisURL,
		AMQPURL:      cfg.AMQPURL,
		PollInterval: cfg.FeedPollInterval,
		Version:      reader.Version,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("change feed unavailable")
	}
	defer changes.Close()
	log.WithField("driver", cfg.FeedDriver).Info("change feed ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 启动异步统计服务
	stats := services.NewStatsWorker(posts, reader, log)
	go stats.Run(ctx)

	commentStore := store.NewCommentStore(conn, feed.Fanout(changes, stats), log)

	hub, err := comments.NewHub(cfg.SyncCacheSize, commentStore, profiles,
		comments.WithLogger(log),
		comments.WithChangeFeed(changes),
	)
	if err != nil {
		log.WithError(err).Fatal("create comment hub")
	}
	defer hub.Close()

	sentiment, err := services.NewSentimentService(
		services.NewLLMClient(cfg.LLMBaseURL, cfg.LLMToken, cfg.LLMModel), sentimentCacheSize, log)
	if err != nil {
		log.WithError(err).Fatal("create sentiment service")
	}

	mail := services.NewMailService(services.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, log)

	notifications := store.NewNotificationStore(conn)

	engine := router.New(router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigin:    cfg.CORSOrigin,
		Profiles:      profiles,
		Log:           log,
	}, router.Handlers{
		Auth:          handlers.NewAuthHandler(profiles, services.NewCaptchaService(), log),
		Posts:         handlers.NewPostHandler(posts, profiles, sentiment, stats, hub, log),
		Comments:      handlers.NewCommentHandler(hub, posts, profiles, notifications, mail, log),
		Complaints:    handlers.NewComplaintHandler(complaints, profiles, notifications, mail, log),
		Chat:          handlers.NewChatHandler(sentiment, posts, store.NewChatStore(conn), log),
		Notifications: handlers.NewNotificationHandler(notifications, log),
		Wellbeing:     handlers.NewWellbeingHandler(store.NewMoodStore(conn), store.NewSentimentReportStore(conn), log),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine}
	go func() {
		log.Infof("UniSphere server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
