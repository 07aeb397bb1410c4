package userdata

import (
	"fmt"
	"strings"

	"github.com/fitlog/internal/storage"
	"go.uber.org/zap"
)

// Scope 把逻辑键映射到某个身份的命名空间。
// identity 为空时退回到不带前缀的全局键，这是合法状态而不是错误。
type Scope struct {
	store    storage.Store
	identity string
	logger   *zap.Logger
}

// NewScope 构造 Scope
func NewScope(store storage.Store, identity string, logger *zap.Logger) Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Scope{store: store, identity: strings.TrimSpace(identity), logger: logger}
}

// Identity 返回当前命名空间对应的身份，可能为空。
func (s Scope) Identity() string {
	return s.identity
}

// Store 返回底层存储。
func (s Scope) Store() storage.Store {
	return s.store
}

// Key 派生存储键：有身份时为 {identity}_{logicalKey}，否则原样返回。
func (s Scope) Key(logicalKey string) string {
	return DeriveKey(s.identity, logicalKey)
}

// DeriveKey 是 Scope.Key 的纯函数形式。
func DeriveKey(identity, logicalKey string) string {
	if identity == "" {
		return logicalKey
	}
	return identity + "_" + logicalKey
}

// Load 读取并解析 JSON 值到 dst。缺失、读取失败或内容损坏都返回 false，损坏时记录告警。
func (s Scope) Load(logicalKey string, dst any) bool {
	key := s.Key(logicalKey)
	raw, found, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("read user data failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found || raw == "" {
		return false
	}

	if err := storage.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("discarding malformed user data", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Save 把值编码为 JSON 写入命名空间。
func (s Scope) Save(logicalKey string, value any) error {
	raw, err := storage.EncodeJSON(value)
	if err != nil {
		return err
	}
	if err := s.store.Set(s.Key(logicalKey), raw); err != nil {
		return fmt.Errorf("save %s: %w", logicalKey, err)
	}
	return nil
}

// Remove 删除命名空间中的键。
func (s Scope) Remove(logicalKey string) error {
	if err := s.store.Remove(s.Key(logicalKey)); err != nil {
		return fmt.Errorf("remove %s: %w", logicalKey, err)
	}
	return nil
}

// DayKeys 列出命名空间下某类按天分片的键，返回值为 日期后缀 -> 存储键。
func (s Scope) DayKeys(prefix string) (map[string]string, error) {
	fullPrefix := s.Key(prefix)
	keys, err := s.store.Keys(fullPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %s keys: %w", prefix, err)
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		result[strings.TrimPrefix(key, fullPrefix)] = key
	}
	return result, nil
}

// LoadRaw 读取未编码的原始字符串值。
func (s Scope) LoadRaw(logicalKey string) (string, bool) {
	key := s.Key(logicalKey)
	raw, found, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("read user data failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, found && raw != ""
}

// SaveRaw 直接写入原始字符串值。
func (s Scope) SaveRaw(logicalKey, value string) error {
	if err := s.store.Set(s.Key(logicalKey), value); err != nil {
		return fmt.Errorf("save %s: %w", logicalKey, err)
	}
	return nil
}
