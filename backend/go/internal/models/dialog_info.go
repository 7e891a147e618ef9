package models

import (
	"time"

	"gorm.io/datatypes"
)

// DialogInfo 代表一次会话记录。History 是自由格式的对话历史 JSON，
// 会话通过 Dialog2Kb 边从零个或多个知识库中获取上下文。
type DialogInfo struct {
	DialogID   int64          `gorm:"column:dialog_id;primaryKey;autoIncrement" json:"dialog_id"`
	UID        int64          `gorm:"column:uid;index;not null" json:"uid"`
	DialogName string         `gorm:"column:dialog_name;not null;size:255" json:"dialog_name"`
	History    datatypes.JSON `gorm:"column:history" json:"history"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;default:false" json:"-"`
}

// TableName 指定 GORM 使用的表名。
func (DialogInfo) TableName() string {
	return "dialog_info"
}
