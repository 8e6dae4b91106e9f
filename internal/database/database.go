package database

import (
	"fmt"

	"github.com/blues/crowdvc/internal/config"
	"github.com/blues/crowdvc/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.PoolModel{},
		&model.CandidatePitchModel{},
		&model.ContributionModel{},
		&model.VoteModel{},
		&model.WinnerAllocationModel{},
		&model.MilestoneModel{},
		&model.MilestoneApprovalModel{},
		&model.RefundRecordModel{},
		&model.TransferRecordModel{},
		&model.RoleModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
