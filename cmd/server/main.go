package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fi44er/kirda/config"
	"github.com/Fi44er/kirda/db"
	"github.com/Fi44er/kirda/internal/bot"
	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/handlers"
	"github.com/Fi44er/kirda/internal/repository"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		utils.InitLogger("info").Fatal("Failed to load config: ", err)
	}
	logger := utils.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.ConnectDb(cfg.DBDriver, cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}
	if err := db.Migrate(database, logger); err != nil {
		logger.Fatal(err)
	}
	if cfg.SeedDefaults {
		if err := db.Seed(database, logger); err != nil {
			logger.Fatal(err)
		}
	}

	repo := repository.NewRepository(database, logger)
	gateway := cashfree.NewClient(cashfree.Config{
		AppID:              cfg.CashfreeAppID,
		SecretKey:          cfg.CashfreeSecretKey,
		BaseURL:            cfg.CashfreeBaseURL,
		PayoutBaseURL:      cfg.CashfreePayoutBaseURL,
		PayoutClientID:     cfg.CashfreePayoutClientID,
		PayoutClientSecret: cfg.CashfreePayoutClientSecret,
	}, logger)

	var uploader service.Uploader
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			logger.Fatal("Failed to create R2 uploader: ", err)
		}
		uploader = r2
	} else {
		logger.Warn("R2 is not configured, help-request screenshots are disabled")
	}

	svc, err := service.NewService(repo, gateway, uploader, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create service: ", err)
	}
	if err := svc.EnsureAdmin(ctx); err != nil {
		logger.Fatal("Failed to ensure admin account: ", err)
	}

	if cfg.TelegramBotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal("Failed to create bot API: ", err)
		}
		adminBot := bot.NewBot(api, svc, cfg.AdminChatID, logger)
		svc.SetNotifier(adminBot)
		go adminBot.Start(ctx)
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is empty, admin notifications are disabled")
	}

	scheduler, err := svc.StartScheduler()
	if err != nil {
		logger.Fatal("Failed to start scheduler: ", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "kirda",
		BodyLimit: 6 << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	handlers.NewHandler(svc, logger).SetupRoutes(app)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Errorf("HTTP shutdown: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Errorf("Scheduler shutdown: %v", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
}
