package service

import (
	"context"
	"errors"
	"fmt"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/doc_service/store"
	"DocHive/backend/go/internal/models"
)

// RootID 表示树的根作用域：根级文档的 parent_id 为 0，没有父边行。
const RootID int64 = 0

// maxTreeDepth 限制向根回溯的步数，数据损坏成环时祖先遍历在此截断。
const maxTreeDepth = 128

// BatchResult 是批量操作中单个 id 的处理结果。批量操作逐个隔离失败，
// 调用方只需重试失败的子集。
type BatchResult struct {
	Did int64
	Err error
}

// requireFolder 校验 parentID 指向调用者的一个未删除文件夹；RootID 恒有效。
func (s *Service) requireFolder(ctx context.Context, uid, parentID int64) (*models.DocInfo, error) {
	if parentID == RootID {
		return nil, nil
	}
	parent, err := s.docs.GetLiveDoc(ctx, uid, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsFolder() {
		return nil, apperrors.NotFoundf("文件夹 %d", parentID)
	}
	return parent, nil
}

// wouldCycle 判断把 did 挂到 destID 之下是否成环：destID 等于 did 本身，
// 或 did 是 destID 的祖先。从 destID 沿父指针迭代回溯，深度受 maxTreeDepth 限制。
func (s *Service) wouldCycle(ctx context.Context, did, destID int64) (bool, error) {
	if destID == did {
		return true, nil
	}
	node := destID
	for depth := 0; node != RootID; depth++ {
		if depth >= maxTreeDepth {
			return false, apperrors.Persistencef(fmt.Errorf("深度超过 %d", maxTreeDepth), "回溯文档 %d 的祖先", destID)
		}
		parent, ok, err := s.rels.ParentOf(ctx, node)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		if parent == did {
			return true, nil
		}
		node = parent
	}
	return false, nil
}

// CreateFolder 在 parentID 之下创建一个文件夹。名字走与上传相同的
// 静默续号解析，然后先建行、再放置。与上传一样：并发创建者抢占了
// 解析出的名字时带新名字重试，放置失败时回收已建的行。
func (s *Service) CreateFolder(ctx context.Context, uid, parentID int64, name string) (*models.DocInfo, error) {
	if _, err := s.requireFolder(ctx, uid, parentID); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		resolved, err := s.resolveUploadName(ctx, uid, parentID, name)
		if err != nil {
			return nil, err
		}

		now := s.now()
		folder := &models.DocInfo{
			UID:       uid,
			ParentID:  parentID,
			DocName:   resolved,
			Size:      0,
			Type:      models.KindFolder,
			Location:  "",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.docs.CreateDoc(ctx, folder); err != nil {
			if errors.Is(err, apperrors.ErrNameConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if err := s.rels.PlaceDoc(ctx, parentID, folder.Did, now); err != nil {
			// 行已落库但没有进树，回收它，避免占着名字的孤儿行。
			if delErr := s.docs.SoftDeleteDoc(ctx, folder.Did, now); delErr != nil {
				s.logger.WithPayload(map[string]interface{}{"did": folder.Did}).Error("放置失败后回收文件夹行失败: " + delErr.Error())
			}
			return nil, err
		}

		s.publishEvent(ctx, models.DocEvent{
			Event:     models.DocEventCreated,
			UID:       uid,
			Did:       folder.Did,
			DocName:   folder.DocName,
			Type:      folder.Type,
			ParentID:  parentID,
			Timestamp: now,
		})
		return folder, nil
	}
	return nil, lastErr
}

// Rename 显式重命名一个文档。目标名与未删除同级冲突时返回 NameConflict，
// 不做静默续号；仅与已软删除同级同名是允许的。
func (s *Service) Rename(ctx context.Context, uid, did int64, newName string) (*models.DocInfo, error) {
	doc, err := s.docs.GetLiveDoc(ctx, uid, did)
	if err != nil {
		return nil, err
	}
	if err := s.checkRenameName(ctx, uid, doc.ParentID, did, newName); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.docs.RenameDoc(ctx, did, newName, now); err != nil {
		return nil, err
	}
	doc.DocName = newName
	doc.UpdatedAt = now

	s.publishEvent(ctx, models.DocEvent{
		Event:     models.DocEventRenamed,
		UID:       uid,
		Did:       did,
		DocName:   newName,
		Type:      doc.Type,
		Location:  doc.Location,
		ParentID:  doc.ParentID,
		Timestamp: now,
	})
	return doc, nil
}

// MoveDocs 把一批文档移动到 destID 之下。每个 id 独立校验所有权、
// 环与目标下的名额，失败逐条记录而不中断整批。
func (s *Service) MoveDocs(ctx context.Context, uid, destID int64, dids []int64) []BatchResult {
	results := make([]BatchResult, 0, len(dids))

	dest, destErr := s.requireFolder(ctx, uid, destID)
	for _, did := range dids {
		results = append(results, BatchResult{Did: did, Err: s.moveOne(ctx, uid, destID, dest, destErr, did)})
	}
	return results
}

func (s *Service) moveOne(ctx context.Context, uid, destID int64, dest *models.DocInfo, destErr error, did int64) error {
	if destErr != nil {
		return destErr
	}
	doc, err := s.docs.GetLiveDoc(ctx, uid, did)
	if err != nil {
		return err
	}
	if dest != nil && dest.UID != doc.UID {
		return apperrors.CrossOwnerf("文档 %d 与目标文件夹 %d 属于不同用户", did, destID)
	}

	cycle, err := s.wouldCycle(ctx, did, destID)
	if err != nil {
		return err
	}
	if cycle {
		return apperrors.Cyclef("不能把文档 %d 移动到其自身或后代之下", did)
	}

	// 目标下已有未删除的同名节点时移动被拒绝，不做静默续号。
	if err := s.checkRenameName(ctx, uid, destID, did, doc.DocName); err != nil {
		return err
	}

	now := s.now()
	if err := s.rels.PlaceDoc(ctx, destID, did, now); err != nil {
		return err
	}

	s.publishEvent(ctx, models.DocEvent{
		Event:     models.DocEventMoved,
		UID:       uid,
		Did:       did,
		DocName:   doc.DocName,
		Type:      doc.Type,
		Location:  doc.Location,
		ParentID:  destID,
		Timestamp: now,
	})
	return nil
}

// DeleteDocs 软删除一批文档，逐条隔离失败。
// 子孙不做级联：被删文件夹的后代仍是活跃行，经由列表不可达
// （祖先已被读路径过滤），但仍可按 id 做审计查询。
func (s *Service) DeleteDocs(ctx context.Context, uid int64, dids []int64) []BatchResult {
	results := make([]BatchResult, 0, len(dids))
	for _, did := range dids {
		results = append(results, BatchResult{Did: did, Err: s.deleteOne(ctx, uid, did)})
	}
	return results
}

func (s *Service) deleteOne(ctx context.Context, uid, did int64) error {
	doc, err := s.docs.GetLiveDoc(ctx, uid, did)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.docs.SoftDeleteDoc(ctx, did, now); err != nil {
		return err
	}

	s.publishEvent(ctx, models.DocEvent{
		Event:     models.DocEventDeleted,
		UID:       uid,
		Did:       did,
		DocName:   doc.DocName,
		Type:      doc.Type,
		Location:  doc.Location,
		ParentID:  doc.ParentID,
		Timestamp: now,
	})
	return nil
}

// ListChildren 按放置顺序返回文件夹的直接子文档，已软删除的子文档被过滤。
// 顺序来自 doc2doc 边行，移动到别处再移回会排到末尾。根级文档没有父边，
// 根级列表走 ListDocs 的文件夹过滤。
func (s *Service) ListChildren(ctx context.Context, uid, folderID int64) ([]models.DocInfo, error) {
	if folderID == RootID {
		return nil, apperrors.NotFoundf("文件夹 %d", folderID)
	}
	if _, err := s.requireFolder(ctx, uid, folderID); err != nil {
		return nil, err
	}

	ids, err := s.rels.ChildrenOf(ctx, folderID)
	if err != nil {
		return nil, err
	}
	children := make([]models.DocInfo, 0, len(ids))
	for _, did := range ids {
		doc, err := s.docs.GetLiveDoc(ctx, uid, did)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		children = append(children, *doc)
	}
	return children, nil
}

// ListDocs 按关键字/文件夹/标签/知识库过滤返回文档列表与总数。
func (s *Service) ListDocs(ctx context.Context, p store.ListDocsParams) ([]models.DocInfo, int64, error) {
	return s.docs.ListByParams(ctx, p)
}

// GetDocForAudit 按 id 返回文档行，包含已软删除的行，供审计与历史查询。
func (s *Service) GetDocForAudit(ctx context.Context, uid, did int64) (*models.DocInfo, error) {
	return s.docs.GetDocAny(ctx, uid, did)
}
