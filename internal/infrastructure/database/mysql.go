package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nextearnx/internal/config"
	"nextearnx/internal/model"
	"nextearnx/pkg/logger"
)

var DB *gorm.DB

func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Driver errors map onto gorm.ErrDuplicatedKey and friends;
		// repositories match those instead of raw mysql error numbers.
		TranslateError: true,
	})
	if err != nil {
		logger.Fatalf("failed to connect to MySQL: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("failed to get underlying DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(
		&model.User{},
		&model.Wallet{},
		&model.LedgerEntry{},
		&model.Lifafa{},
		&model.LifafaClaim{},
		&model.BannedNumber{},
		&model.GlobalSettings{},
		&model.Subscription{},
		&model.AffiliateAccount{},
		&model.TransferDay{},
		&model.OutboxMessage{},
	)
	if err != nil {
		logger.Fatalf("failed to auto-migrate schema: %v", err)
	}

	DB = db
	logger.Info("MySQL connected")
	return db
}
