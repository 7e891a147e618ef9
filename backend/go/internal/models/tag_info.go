package models

import "time"

// TagInfo 代表用户自定义的文档标签。
// Regx 是可选的文件名匹配正则，命中时可将标签自动应用到新上传的文档；
// Dir 是可选的目录式路径标签（例如 "/工作/合同"），与树位置无关。
type TagInfo struct {
	TagID   int64  `gorm:"column:tag_id;primaryKey;autoIncrement" json:"tag_id"`
	UID     int64  `gorm:"column:uid;index;not null" json:"uid"`
	TagName string `gorm:"column:tag_name;not null;size:255" json:"tag_name"`
	Regx    string `gorm:"column:regx;size:255" json:"regx"`
	Color   int64  `gorm:"column:color;default:1" json:"color"`
	Icon    int64  `gorm:"column:icon;default:1" json:"icon"`
	Dir     string `gorm:"column:dir;size:255" json:"dir"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;default:false" json:"-"`
}

// TableName 指定 GORM 使用的表名。
func (TagInfo) TableName() string {
	return "tag_info"
}
