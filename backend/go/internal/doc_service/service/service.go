package service

import (
	"context"
	"io"
	"time"

	"DocHive/backend/go/internal/doc_service/store"
	"DocHive/backend/go/internal/models"
	"DocHive/backend/go/pkg/logger"
)

// DocStore 是文档行的持久化契约，由 store.Store 实现。
// 所有 GetLive* 查询按 (所有者, 未删除) 过滤；GetDocAny 供审计查询使用。
type DocStore interface {
	CreateDoc(ctx context.Context, doc *models.DocInfo) error
	GetLiveDoc(ctx context.Context, uid, did int64) (*models.DocInfo, error)
	GetDocAny(ctx context.Context, uid, did int64) (*models.DocInfo, error)
	FindDocsByName(ctx context.Context, uid, parentID int64, name string, excludeDid int64) ([]models.DocInfo, error)
	RenameDoc(ctx context.Context, did int64, name string, now time.Time) error
	SoftDeleteDoc(ctx context.Context, did int64, now time.Time) error
	ListByParams(ctx context.Context, p store.ListDocsParams) ([]models.DocInfo, int64, error)
}

// RelationStore 是四张关系边表的持久化契约。写入是事务性的：
// 边与伴随的文档行更新要么一起提交要么一起回滚。
type RelationStore interface {
	PlaceDoc(ctx context.Context, parentID, did int64, now time.Time) error
	ParentOf(ctx context.Context, did int64) (int64, bool, error)
	ChildrenOf(ctx context.Context, parentID int64) ([]int64, error)
	LinkTagDoc(ctx context.Context, tagID, did int64) error
	UnlinkTagDoc(ctx context.Context, tagID, did int64) error
	LinkKbDoc(ctx context.Context, kbID, did int64) error
	UnlinkKbDoc(ctx context.Context, kbID, did int64) error
	LinkDialogKb(ctx context.Context, dialogID, kbID int64) error
	UnlinkDialogKb(ctx context.Context, dialogID, kbID int64) error
}

// MetaStore 是标签、知识库与会话行的持久化契约。
type MetaStore interface {
	CreateTag(ctx context.Context, tag *models.TagInfo) error
	GetLiveTag(ctx context.Context, uid, tagID int64) (*models.TagInfo, error)
	ListTags(ctx context.Context, uid int64) ([]models.TagInfo, error)
	CreateKb(ctx context.Context, kb *models.KbInfo) error
	GetLiveKb(ctx context.Context, uid, kbID int64) (*models.KbInfo, error)
	ListKbs(ctx context.Context, uid int64) ([]models.KbInfo, error)
	CreateDialog(ctx context.Context, dialog *models.DialogInfo) error
	GetLiveDialog(ctx context.Context, uid, dialogID int64) (*models.DialogInfo, error)
	ListDialogs(ctx context.Context, uid int64) ([]models.DialogInfo, error)
}

// ObjectStore 是外部对象存储的契约。文件字节按 "<uid>-upload" 桶、
// 十六进制编码的路径 key 存放；桶在首次上传时惰性创建。
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	RemoveObject(ctx context.Context, bucket, key string) error
}

// EventPublisher 把文档变更事件发布给下游流水线。发布失败只记录日志，
// 不影响已提交的核心操作。
type EventPublisher interface {
	Publish(ctx context.Context, event models.DocEvent) error
}

// Service 封装文档工作区的业务逻辑：树的生命周期、命名解析、
// 标签/知识库关联以及上传编排。
type Service struct {
	docs    DocStore
	rels    RelationStore
	meta    MetaStore
	objects ObjectStore
	events  EventPublisher
	logger  *logger.Logger

	// now 注入当前时间，所有变更操作通过它取时间戳，测试中可替换。
	now func() time.Time
}

// NewService 创建一个新的 Service 实例。events 可以为 nil（不发布事件）。
func NewService(docs DocStore, rels RelationStore, meta MetaStore, objects ObjectStore, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		docs:    docs,
		rels:    rels,
		meta:    meta,
		objects: objects,
		events:  events,
		logger:  log,
		now:     time.Now,
	}
}

// publishEvent 发布一条文档事件，失败时仅记录告警。
func (s *Service) publishEvent(ctx context.Context, event models.DocEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithPayload(map[string]interface{}{
			"event": event.Event,
			"did":   event.Did,
		}).Warn("文档事件发布失败: " + err.Error())
	}
}
