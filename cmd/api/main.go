package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qa-tradefeed/internal/alice"
	"qa-tradefeed/internal/auth"
	"qa-tradefeed/internal/config"
	"qa-tradefeed/internal/db"
	"qa-tradefeed/internal/httpserver"
	"qa-tradefeed/internal/stream"
	"qa-tradefeed/internal/trades"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer pool.Close()

	hub := stream.NewHub()
	store := trades.NewStore(cfg.IncomingFile, logger)
	tradesHandler := trades.NewHandler(store, hub, cfg.PushSecret, logger)
	sseHandler := stream.NewSSEHandler(hub, logger)
	wsHandler := stream.NewWSHandler(hub, cfg.WebSocketOrigin, logger)

	tokenStore := alice.NewTokenStore(pool)
	vendorClient := alice.NewClient(cfg.AliceTokenURL, cfg.AliceAPISecret)
	aliceHandler := alice.NewHandler(vendorClient, tokenStore, cfg.AliceSSOURL, cfg.AliceAppCode, logger)

	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	authHandler := auth.NewHandler(authSvc)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		TradesHandler: tradesHandler,
		StreamSSE:     sseHandler,
		StreamWS:      wsHandler,
		AliceHandler:  aliceHandler,
		AuthHandler:   authHandler,
		AuthService:   authSvc,
		InternalToken: cfg.InternalToken,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Info("server listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("incoming_file", cfg.IncomingFile))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http", zap.Error(err))
	}
}
