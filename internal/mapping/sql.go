package mapping

import (
	"context"
	"fmt"
	"time"

	"github.com/beaconbay/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LabelModel is the GORM model for one mapping entry.
type LabelModel struct {
	DeviceID  string `gorm:"primaryKey"`
	Label     string
	UpdatedAt time.Time
}

// TableName pins the table name.
func (LabelModel) TableName() string { return "device_labels" }

// SQLStore keeps the mapping in SQLite via GORM.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore opens (or creates) the database at path and migrates the schema.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mapping db: %w", err)
	}
	return NewSQLStoreFromDB(db)
}

// NewSQLStoreFromDB wraps an already open database.
func NewSQLStoreFromDB(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&LabelModel{}); err != nil {
		return nil, fmt.Errorf("migrate mapping db: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context) (models.Mapping, error) {
	var rows []LabelModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	m := make(models.Mapping, len(rows))
	for _, r := range rows {
		m[r.DeviceID] = r.Label
	}
	return m, nil
}

// Set replaces all rows in one transaction.
func (s *SQLStore) Set(ctx context.Context, m models.Mapping) error {
	m = Normalize(m)
	rows := make([]LabelModel, 0, len(m))
	now := time.Now()
	for id, label := range m {
		rows = append(rows, LabelModel{DeviceID: id, Label: label, UpdatedAt: now})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&LabelModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&LabelModel{}).Error; err != nil {
		return fmt.Errorf("clear mapping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
