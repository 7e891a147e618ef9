package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// BucketName 返回用户的对象存储桶名，每个用户一个桶。
func BucketName(uid int64) string {
	return fmt.Sprintf("%d-upload", uid)
}

// objectKey 由父节点 id 与解析后的名字派生对象存储 key：
// "/<parent>/<name>" 的十六进制编码，同一父节点下稳定且不冲突。
func objectKey(parentID int64, name string) string {
	return hex.EncodeToString([]byte(fmt.Sprintf("/%d/%s", parentID, name)))
}

// ensureBucket 确保用户桶存在。检查与创建之间允许并发竞争：
// 创建失败后复查一次，桶已被对方建好即视为成功。
func (s *Service) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.objects.BucketExists(ctx, bucket)
	if err != nil {
		return apperrors.Storagef(err, "检查桶 '%s'", bucket)
	}
	if exists {
		return nil
	}
	if err := s.objects.MakeBucket(ctx, bucket); err != nil {
		exists, checkErr := s.objects.BucketExists(ctx, bucket)
		if checkErr == nil && exists {
			return nil
		}
		return apperrors.Storagef(err, "创建桶 '%s'", bucket)
	}
	s.logger.WithPayload(map[string]interface{}{"bucket": bucket}).Info("已创建用户存储桶")
	return nil
}

// Ingest 上传一份文件并在树中注册为新文档：
//  1. 在 (uid, parentID) 范围内解析无冲突的名字；
//  2. 按扩展名分类内容种类；
//  3. 把字节写入外部对象存储（失败则不写任何行，不产生孤儿）；
//  4. 创建文档行并放置到 parentID 之下。
//
// 第 4 步失败时补偿删除已写入的对象，避免留下无引用的存储垃圾。
// 并发上传解析到同名时，落败方撞上唯一约束后带新名字重试整个序列。
func (s *Service) Ingest(ctx context.Context, uid, parentID int64, rawName string, data []byte) (*models.DocInfo, error) {
	if _, err := s.requireFolder(ctx, uid, parentID); err != nil {
		return nil, err
	}

	bucket := BucketName(uid)
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return nil, err
	}

	contentType := mimetype.Detect(data).String()

	var lastErr error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		name, err := s.resolveUploadName(ctx, uid, parentID, rawName)
		if err != nil {
			return nil, err
		}
		location := objectKey(parentID, name)

		if err := s.objects.PutObject(ctx, bucket, location, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return nil, apperrors.Storagef(err, "写入对象 '%s'", location)
		}

		now := s.now()
		doc := &models.DocInfo{
			UID:       uid,
			ParentID:  parentID,
			DocName:   name,
			Size:      int64(len(data)),
			Type:      fileKind(name),
			Location:  location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.docs.CreateDoc(ctx, doc); err != nil {
			s.removeObject(ctx, bucket, location)
			if errors.Is(err, apperrors.ErrNameConflict) {
				// 并发上传抢占了这个名字，重新解析后再试。
				lastErr = err
				continue
			}
			return nil, err
		}

		if err := s.rels.PlaceDoc(ctx, parentID, doc.Did, now); err != nil {
			s.removeObject(ctx, bucket, location)
			if delErr := s.docs.SoftDeleteDoc(ctx, doc.Did, now); delErr != nil {
				s.logger.WithPayload(map[string]interface{}{"did": doc.Did}).Error("放置失败后回收文档行失败: " + delErr.Error())
			}
			return nil, err
		}

		s.applyAutoTags(ctx, uid, doc)
		s.publishEvent(ctx, models.DocEvent{
			Event:     models.DocEventCreated,
			UID:       uid,
			Did:       doc.Did,
			DocName:   doc.DocName,
			Type:      doc.Type,
			Location:  doc.Location,
			ParentID:  parentID,
			Timestamp: now,
		})
		return doc, nil
	}
	return nil, lastErr
}

// removeObject 补偿删除一个已写入的对象，失败只记录日志。
func (s *Service) removeObject(ctx context.Context, bucket, key string) {
	if err := s.objects.RemoveObject(ctx, bucket, key); err != nil {
		s.logger.WithPayload(map[string]interface{}{
			"bucket": bucket,
			"key":    key,
		}).Error("补偿删除对象失败: " + err.Error())
	}
}
