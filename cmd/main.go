// Command paperledger runs the two-asset ledger service: a simulated
// BUY/SELL ledger over a quote/base balance pair, exposed via HTTP.
//
// Usage:
//
//	paperledger --config config.yaml
//	paperledger (uses CLI arguments)
//
// Environment variables:
//
//	POSTGRES_DSN: connection string, required for --storage postgres
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/paperledger/paperledger/config"
	"github.com/paperledger/paperledger/internal/events/kafka"
	"github.com/paperledger/paperledger/internal/journal"
	"github.com/paperledger/paperledger/internal/ledger"
	"github.com/paperledger/paperledger/internal/storage"
	"github.com/paperledger/paperledger/internal/storage/memory"
	"github.com/paperledger/paperledger/internal/storage/postgres"
	"github.com/paperledger/paperledger/internal/web"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

func main() {
	// optional .env for local runs
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.BalanceStore
	switch cfg.Storage {
	case config.StoragePostgres:
		dsn := os.Getenv("POSTGRES_DSN")
		if dsn == "" {
			logger.Fatal("POSTGRES_DSN environment variable must be set for postgres storage")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.Fatal("failed to open postgres connection", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		pgStore := postgres.NewStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		store = pgStore
	default:
		store = memory.NewStore()
	}

	opts := []ledger.Option{}

	var tradeJournal *journal.Journal
	if cfg.JournalDir != "" {
		tradeJournal, err = journal.New(cfg.JournalDir)
		if err != nil {
			logger.Fatal("failed to open trade journal", zap.Error(err))
		}
		defer tradeJournal.Close()
		opts = append(opts, ledger.WithJournal(tradeJournal))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, ledger.WithPublisher(publisher))
	}

	service, err := ledger.NewService(store, cfg.Pair, logger, opts...)
	if err != nil {
		logger.Fatal("failed to create ledger service", zap.Error(err))
	}

	var journalReader web.TradeJournalReader
	if tradeJournal != nil {
		journalReader = tradeJournal
	}
	server := web.NewServer(cfg.Listen, cfg.AccountID, service, journalReader, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}
