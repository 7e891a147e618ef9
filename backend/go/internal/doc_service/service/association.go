package service

import (
	"context"
	"regexp"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"

	"gorm.io/datatypes"
)

// 关联操作独立于文档的树位置。每个操作先校验两端实体都未删除且属于
// 同一用户，再写边；重复链接是无副作用的成功而不是错误。

// TagDoc 为文档打上标签。
func (s *Service) TagDoc(ctx context.Context, uid, tagID, did int64) error {
	tag, err := s.meta.GetLiveTag(ctx, uid, tagID)
	if err != nil {
		return err
	}
	doc, err := s.docs.GetLiveDoc(ctx, uid, did)
	if err != nil {
		return err
	}
	if tag.UID != doc.UID {
		return apperrors.CrossOwnerf("标签 %d 与文档 %d 属于不同用户", tagID, did)
	}
	return s.rels.LinkTagDoc(ctx, tagID, did)
}

// UntagDoc 移除文档上的标签；边不存在时也是成功。
func (s *Service) UntagDoc(ctx context.Context, uid, tagID, did int64) error {
	if _, err := s.meta.GetLiveTag(ctx, uid, tagID); err != nil {
		return err
	}
	if _, err := s.docs.GetLiveDoc(ctx, uid, did); err != nil {
		return err
	}
	return s.rels.UnlinkTagDoc(ctx, tagID, did)
}

// AddToKb 把文档收录进知识库。
func (s *Service) AddToKb(ctx context.Context, uid, kbID, did int64) error {
	kb, err := s.meta.GetLiveKb(ctx, uid, kbID)
	if err != nil {
		return err
	}
	doc, err := s.docs.GetLiveDoc(ctx, uid, did)
	if err != nil {
		return err
	}
	if kb.UID != doc.UID {
		return apperrors.CrossOwnerf("知识库 %d 与文档 %d 属于不同用户", kbID, did)
	}
	return s.rels.LinkKbDoc(ctx, kbID, did)
}

// RemoveFromKb 把文档移出知识库。
func (s *Service) RemoveFromKb(ctx context.Context, uid, kbID, did int64) error {
	if _, err := s.meta.GetLiveKb(ctx, uid, kbID); err != nil {
		return err
	}
	if _, err := s.docs.GetLiveDoc(ctx, uid, did); err != nil {
		return err
	}
	return s.rels.UnlinkKbDoc(ctx, kbID, did)
}

// LinkDialogKb 让会话从一个知识库中获取上下文。
func (s *Service) LinkDialogKb(ctx context.Context, uid, dialogID, kbID int64) error {
	dialog, err := s.meta.GetLiveDialog(ctx, uid, dialogID)
	if err != nil {
		return err
	}
	kb, err := s.meta.GetLiveKb(ctx, uid, kbID)
	if err != nil {
		return err
	}
	if dialog.UID != kb.UID {
		return apperrors.CrossOwnerf("会话 %d 与知识库 %d 属于不同用户", dialogID, kbID)
	}
	return s.rels.LinkDialogKb(ctx, dialogID, kbID)
}

// UnlinkDialogKb 解除会话对知识库的引用。
func (s *Service) UnlinkDialogKb(ctx context.Context, uid, dialogID, kbID int64) error {
	if _, err := s.meta.GetLiveDialog(ctx, uid, dialogID); err != nil {
		return err
	}
	if _, err := s.meta.GetLiveKb(ctx, uid, kbID); err != nil {
		return err
	}
	return s.rels.UnlinkDialogKb(ctx, dialogID, kbID)
}

// CreateTag 创建一个标签。regx 为空时标签只能手工应用。
func (s *Service) CreateTag(ctx context.Context, uid int64, name, regx string, color, icon int64, dir string) (*models.TagInfo, error) {
	now := s.now()
	tag := &models.TagInfo{
		UID:       uid,
		TagName:   name,
		Regx:      regx,
		Color:     color,
		Icon:      icon,
		Dir:       dir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.meta.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags 返回用户的全部标签。
func (s *Service) ListTags(ctx context.Context, uid int64) ([]models.TagInfo, error) {
	return s.meta.ListTags(ctx, uid)
}

// CreateKb 创建一个知识库。
func (s *Service) CreateKb(ctx context.Context, uid int64, name string, icon int64) (*models.KbInfo, error) {
	now := s.now()
	kb := &models.KbInfo{
		UID:       uid,
		KbName:    name,
		Icon:      icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.meta.CreateKb(ctx, kb); err != nil {
		return nil, err
	}
	return kb, nil
}

// ListKbs 返回用户的全部知识库。
func (s *Service) ListKbs(ctx context.Context, uid int64) ([]models.KbInfo, error) {
	return s.meta.ListKbs(ctx, uid)
}

// CreateDialog 创建一条会话记录。
func (s *Service) CreateDialog(ctx context.Context, uid int64, name string, history datatypes.JSON) (*models.DialogInfo, error) {
	now := s.now()
	dialog := &models.DialogInfo{
		UID:        uid,
		DialogName: name,
		History:    history,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.meta.CreateDialog(ctx, dialog); err != nil {
		return nil, err
	}
	return dialog, nil
}

// ListDialogs 返回用户的全部会话。
func (s *Service) ListDialogs(ctx context.Context, uid int64) ([]models.DialogInfo, error) {
	return s.meta.ListDialogs(ctx, uid)
}

// applyAutoTags 把文件名命中 Regx 的标签自动应用到新文档上。
// 模式非法或链接失败只记录日志，不影响上传结果。
func (s *Service) applyAutoTags(ctx context.Context, uid int64, doc *models.DocInfo) {
	tags, err := s.meta.ListTags(ctx, uid)
	if err != nil {
		s.logger.Warn("自动打标签时读取标签失败: " + err.Error())
		return
	}
	for i := range tags {
		if tags[i].Regx == "" {
			continue
		}
		re, err := regexp.Compile(tags[i].Regx)
		if err != nil {
			continue
		}
		if !re.MatchString(doc.DocName) {
			continue
		}
		if err := s.rels.LinkTagDoc(ctx, tags[i].TagID, doc.Did); err != nil {
			s.logger.WithPayload(map[string]interface{}{
				"tag_id": tags[i].TagID,
				"did":    doc.Did,
			}).Warn("自动打标签失败: " + err.Error())
		}
	}
}
