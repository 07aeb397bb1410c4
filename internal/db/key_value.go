package db

import "gorm.io/gorm"

// KeyValue 以键值对形式保存用户数据，语义等同于浏览器的 localStorage。
// Key 由调用方决定是否带用户前缀（例如 a@x.com_workoutHistory），这里不做解释。
type KeyValue struct {
	gorm.Model
	Key   string `gorm:"size:255;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (KeyValue) TableName() string {
	return "key_values"
}
