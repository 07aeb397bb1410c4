package service

import (
	"time"

	"github.com/fitlog/internal/userdata"
)

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 返回两个日期之间的自然日差（to - from），不受夏令时影响。
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func formatDay(t time.Time) string {
	return t.Format(userdata.DateLayout)
}

// localDay 取 ISO-8601 时间戳在 loc 中的日期。
// 无法解析为完整时间戳时退回到前 10 个字符形式的日期。
func localDay(timestamp string, loc *time.Location) (time.Time, bool) {
	if parsed, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return normalizeToDate(parsed.In(loc)), true
	}
	if len(timestamp) >= len(userdata.DateLayout) {
		if parsed, err := time.ParseInLocation(userdata.DateLayout, timestamp[:len(userdata.DateLayout)], loc); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
