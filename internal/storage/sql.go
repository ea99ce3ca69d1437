package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// entry is one persisted key/value row.
type entry struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value string `gorm:"not null"`
}

func (entry) TableName() string {
	return "client_storage"
}

// SQL stores the record in a key/value table. Both keys are written and
// deleted inside one transaction.
type SQL struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a sqlite database at path.
func OpenSQLite(path string) (*SQL, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session db dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return NewSQL(db)
}

// NewSQL wraps an existing gorm handle and migrates the storage table.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Load(ctx context.Context) (Record, error) {
	var rows []entry
	if err := s.db.WithContext(ctx).Where("name IN ?", []string{KeyToken, KeyRole}).Find(&rows).Error; err != nil {
		return Record{}, fmt.Errorf("load session rows: %w", err)
	}
	var rec Record
	for _, row := range rows {
		switch row.Name {
		case KeyToken:
			rec.Token = row.Value
		case KeyRole:
			rec.Role = row.Value
		}
	}
	return rec, nil
}

func (s *SQL) Save(ctx context.Context, rec Record) error {
	rows := []entry{
		{Name: KeyToken, Value: rec.Token},
		{Name: KeyRole, Value: rec.Role},
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("save session rows: %w", err)
	}
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("name IN ?", []string{KeyToken, KeyRole}).Delete(&entry{}).Error
	})
	if err != nil {
		return fmt.Errorf("clear session rows: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
