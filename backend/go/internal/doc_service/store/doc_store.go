package store

import (
	"context"
	"errors"
	"time"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"

	"gorm.io/gorm"
)

// ListDocsParams 描述一次文档列表查询：可选的关键字、文件夹、标签和
// 知识库过滤，外加排序键与分页。
type ListDocsParams struct {
	UID      int64
	Keywords string // 文档名子串，大小写不敏感
	FolderID *int64 // 限定为某个父节点的直接子节点；0 表示根
	TagID    *int64
	KbID     *int64
	SortBy   string // name | size | type | created_at | updated_at
	Desc     bool
	Page     int // 从 1 开始
	PerPage  int
}

const defaultPerPage = 30

// sortColumns 是允许的排序键白名单，防止调用方注入任意列名。
var sortColumns = map[string]string{
	"name":       "doc_name",
	"size":       "size",
	"type":       "type",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// CreateDoc 插入一条新的文档行。不涉及树的放置，放置由 PlaceDoc 单独完成。
func (s *Store) CreateDoc(ctx context.Context, doc *models.DocInfo) error {
	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NameConflictf("文档 '%s'", doc.DocName)
		}
		return apperrors.Persistencef(err, "创建文档行")
	}
	return nil
}

// GetLiveDoc 按所有者范围查找一条未删除的文档行。
// 行不存在、已删除或属于其他用户时一律返回 NotFound，不泄露存在性。
func (s *Store) GetLiveDoc(ctx context.Context, uid, did int64) (*models.DocInfo, error) {
	var doc models.DocInfo
	err := s.DB.WithContext(ctx).
		Where("did = ? AND uid = ? AND is_deleted = ?", did, uid, false).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("文档 %d", did)
		}
		return nil, apperrors.Persistencef(err, "查找文档 %d", did)
	}
	return &doc, nil
}

// GetDocAny 按 id 查找文档行，包含已软删除的行，用于审计与历史查询。
func (s *Store) GetDocAny(ctx context.Context, uid, did int64) (*models.DocInfo, error) {
	var doc models.DocInfo
	err := s.DB.WithContext(ctx).
		Where("did = ? AND uid = ?", did, uid).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("文档 %d", did)
		}
		return nil, apperrors.Persistencef(err, "查找文档 %d", did)
	}
	return &doc, nil
}

// FindDocsByName 在 (uid, parentID) 范围内查找同名的未删除文档。
// excludeDid 大于 0 时排除该 id 本身，供重命名时的冲突检查使用。
// 依赖连接的 utf8mb4_general_ci 排序规则，名称比较大小写不敏感。
func (s *Store) FindDocsByName(ctx context.Context, uid, parentID int64, name string, excludeDid int64) ([]models.DocInfo, error) {
	q := s.DB.WithContext(ctx).
		Where("uid = ? AND parent_id = ? AND doc_name = ? AND is_deleted = ?", uid, parentID, name, false)
	if excludeDid > 0 {
		q = q.Where("did <> ?", excludeDid)
	}
	var docs []models.DocInfo
	if err := q.Find(&docs).Error; err != nil {
		return nil, apperrors.Persistencef(err, "按名称查找文档 '%s'", name)
	}
	return docs, nil
}

// RenameDoc 更新文档的显示名并推进 updated_at。
// 同级活跃行的唯一约束在此兜底：并发重命名落到同名时报 NameConflict。
func (s *Store) RenameDoc(ctx context.Context, did int64, name string, now time.Time) error {
	result := s.DB.WithContext(ctx).Model(&models.DocInfo{}).
		Where("did = ?", did).
		Updates(map[string]interface{}{"doc_name": name, "updated_at": now})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.NameConflictf("文档 '%s'", name)
		}
		return apperrors.Persistencef(result.Error, "重命名文档 %d", did)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("文档 %d", did)
	}
	return nil
}

// SoftDeleteDoc 将文档标记为已删除。delete_token 置为自身 did，
// 释放 (uid, parent_id, doc_name) 的活跃名额；边行保留，由读路径过滤。
func (s *Store) SoftDeleteDoc(ctx context.Context, did int64, now time.Time) error {
	result := s.DB.WithContext(ctx).Model(&models.DocInfo{}).
		Where("did = ? AND is_deleted = ?", did, false).
		Updates(map[string]interface{}{
			"is_deleted":   true,
			"delete_token": did,
			"updated_at":   now,
		})
	if result.Error != nil {
		return apperrors.Persistencef(result.Error, "删除文档 %d", did)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("文档 %d", did)
	}
	return nil
}

// ListByParams 按过滤条件返回未删除的文档及总数。
// 标签与知识库过滤通过边表连接实现；被过滤掉的祖先不影响本查询，
// 列表只看文档行自身的删除标记与直接父指针。
func (s *Store) ListByParams(ctx context.Context, p ListDocsParams) ([]models.DocInfo, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.DocInfo{}).
		Where("doc_info.uid = ? AND doc_info.is_deleted = ?", p.UID, false)

	if p.Keywords != "" {
		q = q.Where("doc_info.doc_name LIKE ?", "%"+p.Keywords+"%")
	}
	if p.FolderID != nil {
		q = q.Where("doc_info.parent_id = ?", *p.FolderID)
	}
	if p.TagID != nil {
		q = q.Joins("JOIN tag2doc ON tag2doc.did = doc_info.did").
			Where("tag2doc.tag_id = ?", *p.TagID)
	}
	if p.KbID != nil {
		q = q.Joins("JOIN kb2doc ON kb2doc.did = doc_info.did").
			Where("kb2doc.kb_id = ?", *p.KbID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistencef(err, "统计文档数")
	}

	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "updated_at"
	}
	order := column
	if p.Desc || !ok {
		order += " DESC"
	}

	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}

	var docs []models.DocInfo
	err := q.Order(order).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&docs).Error
	if err != nil {
		return nil, 0, apperrors.Persistencef(err, "查询文档列表")
	}
	return docs, total, nil
}
