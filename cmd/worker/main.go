package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"signlearn-service/internal/config"
	"signlearn-service/internal/db"
	"signlearn-service/internal/repository/postgres"
	"signlearn-service/internal/worker"
	"signlearn-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	logger, err := logger.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	database, err := db.NewDB(cfg.DatabaseURL, cfg.DBQueryTimeout)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	w := worker.NewWorker(postgres.New(database).Stories, cfg.WorkerInterval, logger)
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	cancel()
	<-done
}
