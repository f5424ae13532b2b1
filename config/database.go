package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/escape-finder/api-go/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
}

func GetR2Config() *R2Config {
	return &R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
		PublicURL:       os.Getenv("CLOUDFLARE_PUBLIC_URL"),
		Region:          "auto",
	}
}

// Configured reports whether uploads can be signed.
func (r *R2Config) Configured() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.BucketName != ""
}

// DSN returns DATABASE_URL when set, otherwise a keyword DSN built from the
// DB_* variables.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func InitDB(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if !cfg.IsProduction() {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("config.InitDB: %w", err)
	}

	if cfg.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
		log.Info("database schema migrated")
	}
	if err := SeedRoles(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Role{}, &models.Profile{}, &models.RefreshToken{},
		&models.EscapeRoom{}, &models.RoomAmenity{}, &models.BusinessHours{},
		&models.Review{}, &models.ReviewVote{}, &models.ReviewReport{},
		&models.PendingListing{}, &models.ModerationLog{}, &models.GeographicRegion{},
	)
	if err != nil {
		return fmt.Errorf("config.AutoMigrate: %w", err)
	}
	return nil
}

// SeedRoles makes sure the three account roles exist.
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{models.RoleUser, models.RoleOwner, models.RoleAdmin} {
		var role models.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("config.SeedRoles: %w", err)
		}
		if err := db.Create(&models.Role{Name: name}).Error; err != nil {
			return fmt.Errorf("config.SeedRoles: %w", err)
		}
	}
	return nil
}
