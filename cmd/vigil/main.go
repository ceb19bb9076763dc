package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/adurso/vigil/internal/config"
	"github.com/adurso/vigil/internal/database"
	"github.com/adurso/vigil/internal/dispatch"
	"github.com/adurso/vigil/internal/notify"
	"github.com/adurso/vigil/internal/repository"
	"github.com/adurso/vigil/internal/schedule"
	"github.com/adurso/vigil/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	messageRepo := repository.NewMessageRepository(db)
	conditionRepo := repository.NewConditionRepository(db)
	eventRepo := repository.NewReminderEventRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)

	generator := schedule.NewGenerator(eventRepo, eventRepo)
	refresher := schedule.NewRefresher(conditionRepo, eventRepo, generator)
	conditions := service.NewConditionService(conditionRepo, checkInRepo, refresher)

	dispatcher := dispatch.New(eventRepo, messageRepo, eventRepo, refresher)
	dispatcher.SetCheckInterval(cfg.DispatchInterval)

	if cfg.ResendAPIKey != "" {
		dispatcher.SetEmail(notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom))
		log.Println("Email channel configured")
	} else {
		log.Println("RESEND_API_KEY not set, email channel disabled")
	}

	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramNotifier(cfg.TelegramToken)
		if err != nil {
			log.Fatalf("Failed to create Telegram notifier: %v", err)
		}
		dispatcher.SetTelegram(telegram)
		go telegram.ListenForCheckIns(ctx, conditions)
		log.Println("Telegram channel configured")
	} else {
		log.Println("TELEGRAM_TOKEN not set, telegram channel disabled")
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	dispatcher.Start(ctx)
}
