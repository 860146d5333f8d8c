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
	"github.com/receiptgw/receipt-gateway/internal/handlers"
	"github.com/receiptgw/receipt-gateway/internal/queue"
	"github.com/receiptgw/receipt-gateway/internal/repository"
	"github.com/receiptgw/receipt-gateway/internal/services"
	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"github.com/receiptgw/receipt-gateway/pkg/redis"
	"github.com/receiptgw/receipt-gateway/pkg/xhttp"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 60))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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

	q, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
		return
	}

	receiptRepo := repository.NewReceiptRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)

	// the analyze endpoint runs the pipeline synchronously, so the API
	// carries an extractor and geocoder too
	extractor, err := gateway.NewGeminiExtractor(context.Background(), config.Get().GeminiAPIKey, config.Get().ReceiptModel)
	if err != nil {
		logger.Error("failed creating extractor", "error", err)
		return
	}
	geocoder := gateway.NewNominatimGeocoder(
		config.Get().GeocoderURL,
		config.Get().GeocoderUserAgent,
		config.Get().GeocoderTimeout,
	)

	store := analyzer.NewRepositoryStore(
		receiptRepo, categoryRepo, accountRepo, transactionRepo,
		config.Get().AutoAccountName, config.Get().DefaultCurrency,
	)
	runner := analyzer.NewAnalyzer(store, extractor, geocoder, analyzer.Options{
		DefaultCurrency:    config.Get().DefaultCurrency,
		DefaultDescription: config.Get().DefaultDescription,
		AutoAccountName:    config.Get().AutoAccountName,
	})

	receiptService := services.NewReceiptService(receiptRepo, userRepo, categoryRepo, q, runner)
	healthService := services.NewHealthService(db, redisAdap)

	receiptHandler := handlers.NewReceiptHandler(receiptService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterReceiptRoutes(g, receiptHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
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
