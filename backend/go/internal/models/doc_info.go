package models

import "time"

// DocKind 区分文档树中的节点种类：文件按内容分类，文件夹固定为 "folder"。
const (
	KindFolder   = "folder"
	KindVideo    = "Video"
	KindPicture  = "Picture"
	KindMusic    = "Music"
	KindDocument = "Document"
	KindOther    = "Other"
)

// DocInfo 代表用户文档树中的一个节点（文件或文件夹）。
//
// ParentID 是 Doc2Doc 边表在本表上的冗余副本，仅用于承载
// (uid, parent_id, doc_name, delete_token) 唯一约束：MySQL 无法表达
// "仅对未删除行生效" 的部分唯一索引，因此活跃行的 DeleteToken 固定为 0，
// 软删除时将 DeleteToken 置为自身 Did，使历史行永不冲突。
// 树的权威关系仍然是 Doc2Doc 边表，两者在同一事务中写入。
type DocInfo struct {
	Did      int64  `gorm:"column:did;primaryKey;autoIncrement" json:"did"`
	UID      int64  `gorm:"column:uid;index;uniqueIndex:udx_owner_parent_name;not null" json:"uid"`
	ParentID int64  `gorm:"column:parent_id;uniqueIndex:udx_owner_parent_name;not null;default:0" json:"parent_id"`
	DocName  string `gorm:"column:doc_name;uniqueIndex:udx_owner_parent_name;not null;size:255" json:"doc_name"`
	Size     int64  `gorm:"column:size;not null" json:"size"` // 文件夹恒为 0
	Type     string `gorm:"column:type;not null;size:32" json:"type"`
	Location string `gorm:"column:location;size:1024" json:"location"` // 对象存储 key，文件夹为空

	// KbProgress 记录下游解析流水线的处理进度（0~1）。
	KbProgress float32 `gorm:"column:kb_progress;default:0" json:"kb_progress"`

	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
	IsDeleted   bool      `gorm:"column:is_deleted;default:false" json:"-"`
	DeleteToken int64     `gorm:"column:delete_token;uniqueIndex:udx_owner_parent_name;not null;default:0" json:"-"`
}

// TableName 指定 GORM 使用的表名。
func (DocInfo) TableName() string {
	return "doc_info"
}

// IsFolder 判断节点是否为文件夹。
func (d *DocInfo) IsFolder() bool {
	return d.Type == KindFolder
}
