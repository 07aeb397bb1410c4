package userdata

import (
	"fmt"
	"strings"

	"github.com/fitlog/internal/storage"
)

// ClearUser 删除某个身份命名空间下的所有键，返回删除数量。
func ClearUser(store storage.Store, identity string) (int, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return 0, fmt.Errorf("identity is required")
	}

	keys, err := store.Keys(identity + "_")
	if err != nil {
		return 0, err
	}
	return removeKeys(store, keys)
}

// ClearAll 删除所有用户数据、旧的全局数据、迁移标记以及按天分片的记录，主要用于开发调试。
// 会话键 userEmail / isLoggedIn 不受影响。
func ClearAll(store storage.Store) (int, error) {
	keys, err := store.Keys("")
	if err != nil {
		return 0, err
	}

	global := make(map[string]struct{}, len(legacyKeys)+1)
	for _, key := range legacyKeys {
		global[key] = struct{}{}
	}
	global[KeyGlobalDataMigrated] = struct{}{}

	var doomed []string
	for _, key := range keys {
		if _, ok := global[key]; ok {
			doomed = append(doomed, key)
			continue
		}
		if strings.Contains(key, "@") && strings.Contains(key, "_") {
			doomed = append(doomed, key)
			continue
		}
		if isDayKey(key) {
			doomed = append(doomed, key)
		}
	}
	return removeKeys(store, doomed)
}

func isDayKey(key string) bool {
	for _, prefix := range []string{PrefixMeals, PrefixSentNotifications, PrefixSentWorkoutReminders} {
		if strings.HasPrefix(key, prefix) || strings.Contains(key, "_"+prefix) {
			return true
		}
	}
	return false
}

func removeKeys(store storage.Store, keys []string) (int, error) {
	removed := 0
	for _, key := range keys {
		if err := store.Remove(key); err != nil {
			return removed, fmt.Errorf("remove %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}
