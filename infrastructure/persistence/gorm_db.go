package persistence

import (
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewJobDb opens the MySQL job store via GORM and migrates the publish_jobs
// table. Jobs live apart from tokens so job chatter never contends with
// credential reads.
func NewJobDb() (*gorm.DB, error) {
	cfg := configuration.C.Database.MySql

	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
	)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.PublishJob{}); err != nil {
		return nil, err
	}
	return db, nil
}
