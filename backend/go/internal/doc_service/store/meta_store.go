package store

import (
	"context"
	"errors"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"

	"gorm.io/gorm"
)

// 标签、知识库与会话的行级访问。三者共享同样的所有者范围与软删除规则，
// 关联操作在写边之前通过这里的 GetLive* 校验两端实体。

// CreateTag 创建一个标签。
func (s *Store) CreateTag(ctx context.Context, tag *models.TagInfo) error {
	if err := s.DB.WithContext(ctx).Create(tag).Error; err != nil {
		return apperrors.Persistencef(err, "创建标签 '%s'", tag.TagName)
	}
	return nil
}

// GetLiveTag 按所有者范围查找一个未删除的标签。
func (s *Store) GetLiveTag(ctx context.Context, uid, tagID int64) (*models.TagInfo, error) {
	var tag models.TagInfo
	err := s.DB.WithContext(ctx).
		Where("tag_id = ? AND uid = ? AND is_deleted = ?", tagID, uid, false).
		First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("标签 %d", tagID)
		}
		return nil, apperrors.Persistencef(err, "查找标签 %d", tagID)
	}
	return &tag, nil
}

// ListTags 返回用户的全部未删除标签。
func (s *Store) ListTags(ctx context.Context, uid int64) ([]models.TagInfo, error) {
	var tags []models.TagInfo
	err := s.DB.WithContext(ctx).
		Where("uid = ? AND is_deleted = ?", uid, false).
		Order("tag_id").
		Find(&tags).Error
	if err != nil {
		return nil, apperrors.Persistencef(err, "查询标签列表")
	}
	return tags, nil
}

// CreateKb 创建一个知识库。
func (s *Store) CreateKb(ctx context.Context, kb *models.KbInfo) error {
	if err := s.DB.WithContext(ctx).Create(kb).Error; err != nil {
		return apperrors.Persistencef(err, "创建知识库 '%s'", kb.KbName)
	}
	return nil
}

// GetLiveKb 按所有者范围查找一个未删除的知识库。
func (s *Store) GetLiveKb(ctx context.Context, uid, kbID int64) (*models.KbInfo, error) {
	var kb models.KbInfo
	err := s.DB.WithContext(ctx).
		Where("kb_id = ? AND uid = ? AND is_deleted = ?", kbID, uid, false).
		First(&kb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("知识库 %d", kbID)
		}
		return nil, apperrors.Persistencef(err, "查找知识库 %d", kbID)
	}
	return &kb, nil
}

// ListKbs 返回用户的全部未删除知识库。
func (s *Store) ListKbs(ctx context.Context, uid int64) ([]models.KbInfo, error) {
	var kbs []models.KbInfo
	err := s.DB.WithContext(ctx).
		Where("uid = ? AND is_deleted = ?", uid, false).
		Order("kb_id").
		Find(&kbs).Error
	if err != nil {
		return nil, apperrors.Persistencef(err, "查询知识库列表")
	}
	return kbs, nil
}

// CreateDialog 创建一条会话记录。
func (s *Store) CreateDialog(ctx context.Context, dialog *models.DialogInfo) error {
	if err := s.DB.WithContext(ctx).Create(dialog).Error; err != nil {
		return apperrors.Persistencef(err, "创建会话 '%s'", dialog.DialogName)
	}
	return nil
}

// GetLiveDialog 按所有者范围查找一条未删除的会话。
func (s *Store) GetLiveDialog(ctx context.Context, uid, dialogID int64) (*models.DialogInfo, error) {
	var dialog models.DialogInfo
	err := s.DB.WithContext(ctx).
		Where("dialog_id = ? AND uid = ? AND is_deleted = ?", dialogID, uid, false).
		First(&dialog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("会话 %d", dialogID)
		}
		return nil, apperrors.Persistencef(err, "查找会话 %d", dialogID)
	}
	return &dialog, nil
}

// ListDialogs 返回用户的全部未删除会话。
func (s *Store) ListDialogs(ctx context.Context, uid int64) ([]models.DialogInfo, error) {
	var dialogs []models.DialogInfo
	err := s.DB.WithContext(ctx).
		Where("uid = ? AND is_deleted = ?", uid, false).
		Order("dialog_id").
		Find(&dialogs).Error
	if err != nil {
		return nil, apperrors.Persistencef(err, "查询会话列表")
	}
	return dialogs, nil
}
