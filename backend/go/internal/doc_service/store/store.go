package store

import (
	"DocHive/backend/go/internal/models"

	"gorm.io/gorm"
)

// Store 封装了文档工作区所有表的持久化访问。
// 所有状态都存放在事务型关系库中，行级锁由数据库负责，Store 自身不持有
// 任何进程内缓存。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate 迁移文档工作区相关的全部表结构。
// doc_info 上的 (uid, parent_id, doc_name, delete_token) 唯一索引是并发
// 上传去重的最终保障，必须随迁移一起建立。
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.DocInfo{},
		&models.TagInfo{},
		&models.KbInfo{},
		&models.DialogInfo{},
		&models.Doc2Doc{},
		&models.Tag2Doc{},
		&models.Kb2Doc{},
		&models.Dialog2Kb{},
	)
}
