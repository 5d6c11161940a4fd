package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nomination_ledger/internal/api"
	"nomination_ledger/internal/api/ws"
	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/app/service"
	"nomination_ledger/internal/app/worker"
	"nomination_ledger/internal/common/security"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
	"nomination_ledger/internal/ledger"
	"nomination_ledger/internal/platform/broker"
	"nomination_ledger/internal/platform/config"
	"nomination_ledger/internal/platform/database"
	"nomination_ledger/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// changeBroker is what the ledger publishes to and the workers listen on.
type changeBroker interface {
	realtime.Publisher
	realtime.Subscriber
}

func main() {
	// 1. Load Configuration
	config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT(config.AppConfig.JWTKey)
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	if err := categoryRepo.Seed(seedCtx, model.DefaultCategories()); err != nil {
		log.Fatalf("Could not seed categories: %v", err)
	}
	seedCancel()
	fmt.Println("Database ready.")

	// 4. Initialize Redis, or keep sessions and change events in process
	var (
		changes  changeBroker
		sessions session.Store
	)
	if broker.Enabled() {
		broker.ConnectRedis()
		defer broker.CloseRedis()
		changes = realtime.NewRedisBroker(broker.RDB, config.AppConfig.ChangesChannel, logger)
		sessions = session.NewRedisStore(broker.RDB)
		fmt.Println("Redis connected.")
	} else {
		changes = realtime.NewMemoryBroker(logger)
		sessions = session.NewMemoryStore()
		fmt.Println("REDIS_ADDR not set, using in-process sessions and change events.")
	}

	// 5. Initialize Repositories
	judgeRepo := repository.NewJudgeRepository(database.DB)
	nominationRepo := repository.NewNominationRepository(database.DB, database.Dialect)

	// 6. Initialize Services
	nominationLedger := ledger.New(nominationRepo, changes, logger)
	authService := service.NewAuthService(judgeRepo, sessions, config.AppConfig.JWTExp, logger)
	metricsService := service.NewMetricsService(judgeRepo, categoryRepo, nominationRepo, config.AppConfig.ActivityLimit, logger)

	// 7. Initialize Workers (as goroutines)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	hub := ws.NewHub(logger)
	go hub.Run(workerCtx)

	refresher := worker.NewMetricsRefresher(metricsService, changes, hub, config.AppConfig.MetricsInterval, logger)
	go refresher.Start(workerCtx)
	fmt.Println("Metrics refresher started.")

	if config.AppConfig.TelegramEnabled() {
		bot, err := tgbotapi.NewBotAPI(config.AppConfig.TelegramBotToken)
		if err != nil {
			log.Printf("Telegram announcements disabled: %v", err)
		} else {
			announcer := worker.NewActivityAnnouncer(bot, config.AppConfig.TelegramChatID, changes, logger)
			go func() {
				if err := announcer.Start(workerCtx); err != nil {
					logger.Error("activity announcer stopped", "event", "announcer_stopped", "error", err.Error())
				}
			}()
			fmt.Printf("Telegram announcer started as @%s.\n", bot.Self.UserName)
		}
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, categoryRepo, nominationLedger, metricsService, refresher.Refresh, hub)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stopCtx.Done()

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and workers stopped gracefully.")
}
