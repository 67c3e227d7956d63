package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adityaverma/campus-connect/internal/config"
	"github.com/adityaverma/campus-connect/internal/es"
	"github.com/adityaverma/campus-connect/internal/handlers"
	"github.com/adityaverma/campus-connect/internal/httpserver"
	"github.com/adityaverma/campus-connect/internal/logging"
	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/mykafka"
	"github.com/adityaverma/campus-connect/internal/service/token"
)

const userIndex = "users"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		logger.Warn("kafka producer not available, events disabled", "error", err)
		prod = nil
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch not available, search disabled", "error", err)
		esClient = nil
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler(logger)
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS(), echomw.BodyLimit("2M"))
	e.Use(middleware.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:   db,
		Auth: &middleware.Auth{DB: db, Tokens: tokens},
		AuthHandler: &handlers.AuthHandler{
			DB: db, Tokens: tokens, Producer: prod, ES: esClient, Index: userIndex,
		},
		UserHandler: &handlers.UserHandler{
			DB: db, Producer: prod, ES: esClient, Index: userIndex,
		},
		PostHandler:     &handlers.PostHandler{DB: db, Producer: prod},
		CommentHandler:  &handlers.CommentHandler{DB: db},
		FollowHandler:   &handlers.FollowHandler{DB: db},
		MessageHandler:  &handlers.MessageHandler{DB: db, Producer: prod},
		ResourceHandler: &handlers.ResourceHandler{DB: db},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
