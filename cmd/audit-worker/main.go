// Command audit-worker consumes booking events from RabbitMQ and appends
// one line per event to the audit log file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/config"
	"github.com/iliyamo/campus-room-booking/internal/logger"
	"github.com/iliyamo/campus-room-booking/internal/queue"
)

func main() {
	cfg, err := config.LoadAuditConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	f, err := queue.OpenAuditFile(cfg.LogPath)
	if err != nil {
		log.Fatal("open audit log", zap.String("path", cfg.LogPath), zap.Error(err))
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{
		URL:      cfg.AMQPURL,
		Exchange: cfg.Exchange,
		Queue:    cfg.Queue,
		Sink:     queue.NewAuditLog(f),
		Log:      log,
	}
	log.Info("audit worker started", zap.String("queue", cfg.Queue), zap.String("file", cfg.LogPath))
	_ = c.Run(ctx)
	log.Info("audit worker stopped")
}
