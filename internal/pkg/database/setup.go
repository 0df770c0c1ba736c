package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// Connect opens the MySQL connection with retries and runs auto-migration.
// TranslateError is enabled so a duplicate comment insert surfaces as
// gorm.ErrDuplicatedKey, which the processor treats as already processed.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	var db *gorm.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{TranslateError: true})
		if err == nil {
			if migrateErr := db.AutoMigrate(
				&models.Comment{},
				&models.WorkerApp{},
				&models.WebhookLog{},
				&models.Media{},
			); migrateErr != nil {
				return nil, fmt.Errorf("auto-migration failed: %w", migrateErr)
			}
			return db, nil
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("database unreachable after %d tries: %w", maxRetries, err)
}
