package store

import (
	"context"
	"errors"
	"time"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"

	"gorm.io/gorm"
)

// PlaceDoc 在一个事务中把 child 挂到 parent 之下：写入或改写 doc2doc 边，
// 同步 doc_info 上冗余的 parent_id，并推进 updated_at。parentID 为 0 表示
// 移到根级，此时删除边行（根级文档没有父边）。
// 环检测是上层 Hierarchy Manager 的职责，这里只保证两处写入的原子性。
func (s *Store) PlaceDoc(ctx context.Context, parentID, did int64, now time.Time) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID == 0 {
			if err := tx.Where("did = ?", did).Delete(&models.Doc2Doc{}).Error; err != nil {
				return err
			}
		} else {
			var edge models.Doc2Doc
			err := tx.Where("did = ?", did).First(&edge).Error
			switch {
			case err == nil:
				if err := tx.Model(&edge).Update("parent_id", parentID).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&models.Doc2Doc{ParentID: parentID, Did: did}).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}

		return tx.Model(&models.DocInfo{}).
			Where("did = ?", did).
			Updates(map[string]interface{}{"parent_id": parentID, "updated_at": now}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NameConflictf("目标文件夹 %d 下已有同名文档", parentID)
		}
		return apperrors.Persistencef(err, "放置文档 %d", did)
	}
	return nil
}

// ParentOf 返回文档的父节点 id。根级文档返回 (0, false)。
func (s *Store) ParentOf(ctx context.Context, did int64) (int64, bool, error) {
	var edge models.Doc2Doc
	err := s.DB.WithContext(ctx).Where("did = ?", did).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, apperrors.Persistencef(err, "查询文档 %d 的父节点", did)
	}
	return edge.ParentID, true, nil
}

// ChildrenOf 返回 parentID 直接子节点的 id 序列（按边的插入顺序），
// 已软删除的子文档被过滤掉。
func (s *Store) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	var ids []int64
	err := s.DB.WithContext(ctx).Model(&models.Doc2Doc{}).
		Joins("JOIN doc_info ON doc_info.did = doc2doc.did AND doc_info.is_deleted = ?", false).
		Where("doc2doc.parent_id = ?", parentID).
		Order("doc2doc.id").
		Pluck("doc2doc.did", &ids).Error
	if err != nil {
		return nil, apperrors.Persistencef(err, "查询文件夹 %d 的子节点", parentID)
	}
	return ids, nil
}

// linkEdge 幂等地插入一条多对多边：已存在的键值对不再重复写入。
func linkEdge(tx *gorm.DB, edge interface{}) error {
	if err := tx.FirstOrCreate(edge, edge).Error; err != nil {
		// 两个并发请求同时创建同一条边时，后到者撞上唯一键也算成功。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperrors.Persistencef(err, "写入关系边")
	}
	return nil
}

// LinkTagDoc 为文档打上标签；重复链接是无副作用的成功。
func (s *Store) LinkTagDoc(ctx context.Context, tagID, did int64) error {
	return linkEdge(s.DB.WithContext(ctx), &models.Tag2Doc{TagID: tagID, Did: did})
}

// UnlinkTagDoc 移除标签与文档的边；边不存在时同样视为成功。
func (s *Store) UnlinkTagDoc(ctx context.Context, tagID, did int64) error {
	err := s.DB.WithContext(ctx).
		Where("tag_id = ? AND did = ?", tagID, did).
		Delete(&models.Tag2Doc{}).Error
	if err != nil {
		return apperrors.Persistencef(err, "移除标签边 (%d, %d)", tagID, did)
	}
	return nil
}

// LinkKbDoc 将文档收录进知识库；与树位置无关，重复收录幂等。
func (s *Store) LinkKbDoc(ctx context.Context, kbID, did int64) error {
	return linkEdge(s.DB.WithContext(ctx), &models.Kb2Doc{KbID: kbID, Did: did})
}

// UnlinkKbDoc 将文档移出知识库。
func (s *Store) UnlinkKbDoc(ctx context.Context, kbID, did int64) error {
	err := s.DB.WithContext(ctx).
		Where("kb_id = ? AND did = ?", kbID, did).
		Delete(&models.Kb2Doc{}).Error
	if err != nil {
		return apperrors.Persistencef(err, "移除知识库边 (%d, %d)", kbID, did)
	}
	return nil
}

// LinkDialogKb 让会话引用一个知识库。
func (s *Store) LinkDialogKb(ctx context.Context, dialogID, kbID int64) error {
	return linkEdge(s.DB.WithContext(ctx), &models.Dialog2Kb{DialogID: dialogID, KbID: kbID})
}

// UnlinkDialogKb 解除会话对知识库的引用。
func (s *Store) UnlinkDialogKb(ctx context.Context, dialogID, kbID int64) error {
	err := s.DB.WithContext(ctx).
		Where("dialog_id = ? AND kb_id = ?", dialogID, kbID).
		Delete(&models.Dialog2Kb{}).Error
	if err != nil {
		return apperrors.Persistencef(err, "移除会话边 (%d, %d)", dialogID, kbID)
	}
	return nil
}
