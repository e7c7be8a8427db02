package model

import "time"

// KVEntry 持久化键值表 对应 kv_entries
type KVEntry struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"         json:"key"`
	Value     string    `gorm:"type:text;not null"                  json:"value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (KVEntry) TableName() string { return "kv_entries" }
