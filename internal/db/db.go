package db

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"unisphere/internal/logger"
	"unisphere/internal/models"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=unisphere port=5432 sslmode=disable TimeZone=UTC"

// Open connects to Postgres and migrates the schema.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	if dsn == "" {
		// local dev fallback
		dsn = defaultDSN
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Gorm(log)})
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	log.Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info("database migration completed")
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.Complaint{},
		&models.Notification{},
		&models.MoodEntry{},
		&models.ChatMessage{},
		&models.SentimentReport{},
	)
	return errors.Wrap(err, "migrate database")
}
