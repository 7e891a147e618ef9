package models

import "time"

// KbInfo 代表一个知识库：用户命名的文档集合，独立于文档树的位置。
type KbInfo struct {
	KbID   int64  `gorm:"column:kb_id;primaryKey;autoIncrement" json:"kb_id"`
	UID    int64  `gorm:"column:uid;index;not null" json:"uid"`
	KbName string `gorm:"column:kb_name;not null;size:255" json:"kb_name"`
	Icon   int64  `gorm:"column:icon;default:1" json:"icon"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;default:false" json:"-"`
}

// TableName 指定 GORM 使用的表名。
func (KbInfo) TableName() string {
	return "kb_info"
}
