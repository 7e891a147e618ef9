package service

import (
	"context"
	"fmt"
	"strings"

	"DocHive/backend/go/internal/apperrors"
)

// 命名解析有两种刻意区分的行为：上传静默地在同级范围内追加序号，
// 显式重命名则在冲突时直接拒绝。二者是不同的用户契约，不共享开关参数。

// maxNameProbes 是序号探测的上限，超过即认为同级数据已损坏。
const maxNameProbes = 10000

// maxCreateAttempts 限制并发创建（上传或建文件夹）撞上唯一约束后的重解析次数。
const maxCreateAttempts = 3

// splitFileName 在最后一个 '.' 处把文件名拆成前缀和后缀。
// 没有 '.' 的文件名后缀为空，序号直接缀在名字末尾。
func splitFileName(name string) (prefix, suffix string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// numberedName 生成第 i 个候选名：prefix_i.suffix，后缀为空时为 prefix_i。
func numberedName(prefix, suffix string, i int) string {
	if suffix == "" {
		return fmt.Sprintf("%s_%d", prefix, i)
	}
	return fmt.Sprintf("%s_%d.%s", prefix, i, suffix)
}

// resolveUploadName 在 (uid, parentID) 范围内为上传解析一个无冲突的名字。
// 与未删除的同级节点不冲突时原样返回；否则按 prefix_1.suffix、prefix_2.suffix
// 递增探测，返回第一个空闲的候选名。已软删除的同级不参与冲突判定。
//
// 探测是先读后定的，两个并发上传可能观察到相同的空闲名；doc_info 上的
// 唯一约束负责兜底，撞上约束的一方由调用方重新解析。
func (s *Service) resolveUploadName(ctx context.Context, uid, parentID int64, desired string) (string, error) {
	docs, err := s.docs.FindDocsByName(ctx, uid, parentID, desired, 0)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return desired, nil
	}

	prefix, suffix := splitFileName(desired)
	for i := 1; i <= maxNameProbes; i++ {
		candidate := numberedName(prefix, suffix, i)
		docs, err = s.docs.FindDocsByName(ctx, uid, parentID, candidate, 0)
		if err != nil {
			return "", err
		}
		if len(docs) == 0 {
			return candidate, nil
		}
	}
	return "", apperrors.Persistencef(fmt.Errorf("探测超过 %d 次", maxNameProbes), "解析名称 '%s'", desired)
}

// checkRenameName 校验显式重命名的目标名在当前父节点下是否空闲，
// 检查排除被重命名的文档本身；与未删除同级冲突时返回 NameConflict。
// 仅与已软删除的同级同名是允许的。
func (s *Service) checkRenameName(ctx context.Context, uid, parentID, did int64, name string) error {
	docs, err := s.docs.FindDocsByName(ctx, uid, parentID, name, did)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		return apperrors.NameConflictf("名称 '%s' 已被占用", name)
	}
	return nil
}
