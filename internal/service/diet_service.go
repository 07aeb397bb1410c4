package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fitlog/internal/userdata"
)

// DietService 记录当前启用的饮食计划以及每天已完成的餐次
type DietService struct {
	mu  sync.Mutex
	now func() time.Time
}

// NewDietService 构造 DietService
func NewDietService() *DietService {
	return &DietService{now: time.Now}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *DietService) WithClock(now func() time.Time) *DietService {
	if now != nil {
		s.now = now
	}
	return s
}

// ActivePlan 返回当前启用的计划 ID
func (s *DietService) ActivePlan(scope userdata.Scope) (string, bool) {
	return scope.LoadRaw(userdata.KeyActiveDietPlan)
}

// Activate 启用计划，计划 ID 以原始字符串保存
func (s *DietService) Activate(scope userdata.Scope, planID string) error {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return fmt.Errorf("plan id is required")
	}
	return scope.SaveRaw(userdata.KeyActiveDietPlan, planID)
}

// CompletedMeals 返回某天已完成的餐次，按勾选顺序
func (s *DietService) CompletedMeals(scope userdata.Scope, day time.Time) []string {
	var meals []string
	if !scope.Load(userdata.DayKey(userdata.PrefixMeals, day), &meals) || meals == nil {
		return []string{}
	}
	return meals
}

// ToggleMeal 切换今天某一餐的完成状态，返回最新列表以及该餐是否处于完成状态
func (s *DietService) ToggleMeal(scope userdata.Scope, mealName string) ([]string, bool, error) {
	mealName = strings.TrimSpace(mealName)
	if mealName == "" {
		return nil, false, fmt.Errorf("meal name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now()
	meals := s.CompletedMeals(scope, today)
	updated := make([]string, 0, len(meals)+1)
	completed := true
	for _, meal := range meals {
		if meal == mealName {
			completed = false
			continue
		}
		updated = append(updated, meal)
	}
	if completed {
		updated = append(updated, mealName)
	}

	if err := scope.Save(userdata.DayKey(userdata.PrefixMeals, today), updated); err != nil {
		return nil, false, fmt.Errorf("toggle meal: %w", err)
	}
	return updated, completed, nil
}
