package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/receiptgw/receipt-gateway/internal/analyzer"
	"github.com/receiptgw/receipt-gateway/internal/config"
	gateway "github.com/receiptgw/receipt-gateway/internal/gateways"
	"github.com/receiptgw/receipt-gateway/internal/processor"
	"github.com/receiptgw/receipt-gateway/internal/repository"
	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"github.com/receiptgw/receipt-gateway/pkg/prom"
	"github.com/receiptgw/receipt-gateway/pkg/redis"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	extractor, err := gateway.NewGeminiExtractor(context.Background(), config.Get().GeminiAPIKey, config.Get().ReceiptModel)
	if err != nil {
		logger.Error("failed to create extractor", "error", err)
		return
	}
	geocoder := gateway.NewNominatimGeocoder(
		config.Get().GeocoderURL,
		config.Get().GeocoderUserAgent,
		config.Get().GeocoderTimeout,
	)

	receiptRepo := repository.NewReceiptRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	store := analyzer.NewRepositoryStore(
		receiptRepo, categoryRepo, accountRepo, transactionRepo,
		config.Get().AutoAccountName, config.Get().DefaultCurrency,
	)
	a := analyzer.NewAnalyzer(store, extractor, geocoder, analyzer.Options{
		DefaultCurrency:    config.Get().DefaultCurrency,
		DefaultDescription: config.Get().DefaultDescription,
		AutoAccountName:    config.Get().AutoAccountName,
	})

	lock := analyzer.NewReceiptLock(redisAdap, 2*time.Minute)

	service, err := processor.NewProcessorService(redisAdap)
	if err != nil {
		logger.Error("failed to create the processor", "error", err)
		return
	}
	service.RegisterProcessor(processor.NewReceiptAnalysisProcessor(a, lock))

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start processor", "error", err)
		}
	}()

	<-c
	service.Stop()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
