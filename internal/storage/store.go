// Package storage 提供与浏览器 localStorage 同构的字符串键值存储。
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedValue 表示存储中的值无法按预期结构解析。
var ErrMalformedValue = errors.New("malformed stored value")

// Store 抽象键值持久化：键与值均为字符串，缺失的键不是错误。
type Store interface {
	// Get 返回键对应的值，found=false 表示不存在。
	Get(key string) (value string, found bool, err error)
	// Set 写入或覆盖键值。
	Set(key, value string) error
	// Remove 删除键，键不存在时不报错。
	Remove(key string) error
	// Keys 按字典序返回以 prefix 开头的全部键，prefix 为空时返回所有键。
	Keys(prefix string) ([]string, error)
}

// Unmarshal 解析存储中的 JSON 文本，空值或解析失败统一包装为 ErrMalformedValue。
func Unmarshal(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty value", ErrMalformedValue)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	return nil
}

// EncodeJSON 将值序列化为存储使用的 JSON 文本。
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(data), nil
}
