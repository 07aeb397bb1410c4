package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 key_values 表实现 Store。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 构造 GormStore
func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

// Get 读取单个键
func (s *GormStore) Get(key string) (string, bool, error) {
	var record db.KeyValue
	if err := s.db.Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get key %s: %w", key, err)
	}
	return record.Value, true, nil
}

// Set 通过 upsert 写入键值，同时恢复被软删除的旧记录。
func (s *GormStore) Set(key, value string) error {
	record := db.KeyValue{Key: key, Value: value}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"deleted_at": nil,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}
	return nil
}

// Remove 物理删除键，避免唯一索引与软删除记录冲突。
func (s *GormStore) Remove(key string) error {
	if err := s.db.Unscoped().Where("key = ?", key).Delete(&db.KeyValue{}).Error; err != nil {
		return fmt.Errorf("remove key %s: %w", key, err)
	}
	return nil
}

// Keys 返回以 prefix 开头的键。邮箱中的下划线是 LIKE 通配符，需要转义。
func (s *GormStore) Keys(prefix string) ([]string, error) {
	var keys []string
	query := s.db.Model(&db.KeyValue{})
	if prefix != "" {
		query = query.Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	if err := query.Order("key ASC").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	filtered := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			filtered = append(filtered, key)
		}
	}
	return filtered, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
