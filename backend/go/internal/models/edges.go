package models

// 本文件定义四张关系边表。每条边都归属于唯一的用户（通过两端实体的 uid），
// 数据库层的唯一索引保证：树上单父节点、其余多对多关系的链接幂等。

// Doc2Doc 是文档树的父子边。did 上的唯一索引保证任一文档至多只有一个父节点；
// 根级文档没有对应的边行。
type Doc2Doc struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ParentID int64 `gorm:"column:parent_id;index;not null" json:"parent_id"`
	Did      int64 `gorm:"column:did;uniqueIndex;not null" json:"did"`
}

// TableName 指定 GORM 使用的表名。
func (Doc2Doc) TableName() string {
	return "doc2doc"
}

// Tag2Doc 是标签与文档的多对多边。
type Tag2Doc struct {
	ID    int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TagID int64 `gorm:"column:tag_id;uniqueIndex:udx_tag_doc;index;not null" json:"tag_id"`
	Did   int64 `gorm:"column:did;uniqueIndex:udx_tag_doc;not null" json:"did"`
}

// TableName 指定 GORM 使用的表名。
func (Tag2Doc) TableName() string {
	return "tag2doc"
}

// Kb2Doc 是知识库与文档的多对多边；收录与文档的树位置无关。
type Kb2Doc struct {
	ID   int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	KbID int64 `gorm:"column:kb_id;uniqueIndex:udx_kb_doc;index;not null" json:"kb_id"`
	Did  int64 `gorm:"column:did;uniqueIndex:udx_kb_doc;not null" json:"did"`
}

// TableName 指定 GORM 使用的表名。
func (Kb2Doc) TableName() string {
	return "kb2doc"
}

// Dialog2Kb 是会话与知识库的多对多边。
type Dialog2Kb struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DialogID int64 `gorm:"column:dialog_id;uniqueIndex:udx_dialog_kb;index;not null" json:"dialog_id"`
	KbID     int64 `gorm:"column:kb_id;uniqueIndex:udx_dialog_kb;not null" json:"kb_id"`
}

// TableName 指定 GORM 使用的表名。
func (Dialog2Kb) TableName() string {
	return "dialog2kb"
}
