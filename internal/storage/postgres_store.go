package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheItem is one row of the key-value table
type cacheItem struct {
	Key       string    `gorm:"primaryKey;size:512"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (cacheItem) TableName() string {
	return "cache_items"
}

// PostgresStore implements Substrate as a single key-value table
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore migrates the cache_items table and returns the store
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&cacheItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache_items: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, key string) (string, error) {
	var item cacheItem
	result := s.db.WithContext(ctx).Where("key = ?", key).Take(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("postgres get failed: %w", result.Error)
	}
	return item.Value, nil
}

// SetItem upserts so that a write always fully replaces the previous row
func (s *PostgresStore) SetItem(ctx context.Context, key string, value string) error {
	item := cacheItem{Key: key, Value: value}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item)
	if result.Error != nil {
		return fmt.Errorf("postgres set failed: %w", result.Error)
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&cacheItem{})
	if result.Error != nil {
		return fmt.Errorf("postgres delete failed: %w", result.Error)
	}
	return nil
}

func (s *PostgresStore) GetAllKeys(ctx context.Context) ([]string, error) {
	var keys []string
	result := s.db.WithContext(ctx).Model(&cacheItem{}).Pluck("key", &keys)
	if result.Error != nil {
		return nil, fmt.Errorf("postgres list keys failed: %w", result.Error)
	}
	return keys, nil
}

func (s *PostgresStore) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&cacheItem{})
	if result.Error != nil {
		return fmt.Errorf("postgres multi delete failed: %w", result.Error)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
