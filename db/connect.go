package db

import (
	"fmt"
	"time"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func ConnectDb(driver, url string, log *utils.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true,
		})
	case DriverSQLite:
		dialector = sqlite.Open(url)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(
			log,
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Error,
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Infof("✅ Database connection successfully (%s)", driver)

	log.Info("📦 Setting database connection pool...")
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// An in-memory database lives exactly as long as its single connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func Migrate(db *gorm.DB, log *utils.Logger) error {
	log.Info("📦 Migrating database...")
	tables := []any{
		&models.User{},
		&models.Admin{},
		&models.Game{},
		&models.Tournament{},
		&models.TournamentEntry{},
		&models.Transaction{},
		&models.PaymentOrder{},
		&models.Withdrawal{},
		&models.HelpRequest{},
		&models.AdminMessage{},
	}

	if err := db.AutoMigrate(tables...); err != nil {
		log.Errorf("✖ Failed to migrate database: %v", err)
		return err
	}

	log.Info("✅ Database migrated")
	return nil
}

// Seed inserts the default games and sample tournaments into an empty catalog.
func Seed(db *gorm.DB, log *utils.Logger) error {
	var count int64
	if err := db.Model(&models.Game{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Info("📦 Seeding default catalog...")
	games := []models.Game{
		{Name: "freefire", DisplayName: "Free Fire", Icon: "fas fa-fire", Description: "Battle Royale", IsActive: true},
		{Name: "bgmi", DisplayName: "BGMI", Icon: "fas fa-crosshairs", Description: "Battle Royale", IsActive: true},
		{Name: "codm", DisplayName: "Call of Duty Mobile", Icon: "fas fa-skull", Description: "FPS", IsActive: true},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&games).Error; err != nil {
			return err
		}

		now := time.Now()
		bermuda, erangel := "Bermuda", "Erangel"
		tournaments := []models.Tournament{
			{
				GameID:      games[0].ID,
				Name:        "Squad Championship",
				Description: "4v4 Squad Battle",
				EntryFee:    decimal.RequireFromString("50.00"),
				PrizePool:   decimal.RequireFromString("5000.00"),
				MaxPlayers:  100,
				StartTime:   now.Add(2 * time.Hour),
				Status:      models.TournamentStatusUpcoming,
				Rules:       "No cheating, fair play only",
				MapName:     &bermuda,
			},
			{
				GameID:      games[1].ID,
				Name:        "Solo Victory",
				Description: "Solo Battle Royale",
				EntryFee:    decimal.RequireFromString("30.00"),
				PrizePool:   decimal.RequireFromString("3000.00"),
				MaxPlayers:  50,
				StartTime:   now.Add(4 * time.Hour),
				Status:      models.TournamentStatusUpcoming,
				Rules:       "Solo gameplay only",
				MapName:     &erangel,
			},
		}
		return tx.Omit("Game").Create(&tournaments).Error
	})
}
