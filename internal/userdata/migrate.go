package userdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/fitlog/internal/storage"
	"go.uber.org/zap"
)

// legacyMealDays 是迁移时向前回溯的按天用餐记录天数（含今天）。
const legacyMealDays = 7

// MigrationStatus 描述一次迁移调用的结果
type MigrationStatus string

const (
	// MigrationApplied 表示旧数据已复制给该身份
	MigrationApplied MigrationStatus = "migrated"
	// MigrationAlreadyDone 表示此前已有身份接收过旧数据
	MigrationAlreadyDone MigrationStatus = "already_done"
	// MigrationNothingToDo 表示没有任何旧数据，标记不会被写入
	MigrationNothingToDo MigrationStatus = "nothing_to_migrate"
)

// MigrationResult 汇总迁移调用
type MigrationResult struct {
	Status     MigrationStatus
	CopiedKeys []string
	// Owner 是接收过旧数据的身份，仅在 Status 不是 MigrationNothingToDo 时有值
	Owner string
}

// MigrateLegacyData 在身份首次建立时调用，把多用户改造前的全局数据复制给第一个身份。
// 全局标记 globalDataMigrated 一旦写入就不会被这里清除，之后的身份只会看到自己的空数据。
// 旧键按原样保留，不做删除。
func MigrateLegacyData(store storage.Store, identity string, now time.Time, logger *zap.Logger) (MigrationResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return MigrationResult{}, fmt.Errorf("identity is required")
	}

	owner, found, err := store.Get(KeyGlobalDataMigrated)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("read migration flag: %w", err)
	}
	if found && owner != "" {
		metrics.Migrations.WithLabelValues(string(MigrationAlreadyDone)).Inc()
		return MigrationResult{Status: MigrationAlreadyDone, Owner: owner}, nil
	}

	legacy := make(map[string]string, len(legacyKeys))
	for _, key := range legacyKeys {
		value, found, err := store.Get(key)
		if err != nil {
			return MigrationResult{}, fmt.Errorf("read legacy key %s: %w", key, err)
		}
		if found && value != "" {
			legacy[key] = value
		}
	}

	if len(legacy) == 0 {
		metrics.Migrations.WithLabelValues(string(MigrationNothingToDo)).Inc()
		return MigrationResult{Status: MigrationNothingToDo}, nil
	}

	result := MigrationResult{Status: MigrationApplied, Owner: identity}
	for _, key := range legacyKeys {
		value, ok := legacy[key]
		if !ok {
			continue
		}
		if err := store.Set(DeriveKey(identity, key), value); err != nil {
			return MigrationResult{}, fmt.Errorf("copy legacy key %s: %w", key, err)
		}
		result.CopiedKeys = append(result.CopiedKeys, key)
	}

	for i := 0; i < legacyMealDays; i++ {
		mealKey := DayKey(PrefixMeals, now.AddDate(0, 0, -i))
		value, found, err := store.Get(mealKey)
		if err != nil {
			return MigrationResult{}, fmt.Errorf("read legacy key %s: %w", mealKey, err)
		}
		if !found || value == "" {
			continue
		}
		if err := store.Set(DeriveKey(identity, mealKey), value); err != nil {
			return MigrationResult{}, fmt.Errorf("copy legacy key %s: %w", mealKey, err)
		}
		result.CopiedKeys = append(result.CopiedKeys, mealKey)
	}

	if err := store.Set(KeyGlobalDataMigrated, identity); err != nil {
		return MigrationResult{}, fmt.Errorf("set migration flag: %w", err)
	}

	metrics.Migrations.WithLabelValues(string(MigrationApplied)).Inc()
	logger.Info("legacy data migrated",
		zap.String("identity", identity),
		zap.Strings("keys", result.CopiedKeys),
	)
	return result, nil
}
