package client

import (
	"fmt"
	"purchase-options-demo/internal/config"
	"purchase-options-demo/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenDatabase(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "mysql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates the tables of both order layouts so the active one can be
// switched without a schema change.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Option{},
		&model.Product{},
		&model.CartItem{},
		&model.Post{},
		&model.PostMeta{},
		&model.OrderRecord{},
		&model.OrderAddress{},
		&model.OrderMeta{},
		&model.OrderLineItem{},
		&model.OrderItemMeta{},
	)
}
