package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/models"
)

func TestBucketName(t *testing.T) {
	if got := BucketName(42); got != "42-upload" {
		t.Errorf("got %q, want 42-upload", got)
	}
}

func TestObjectKey(t *testing.T) {
	want := hex.EncodeToString([]byte("/0/report.pdf"))
	if got := objectKey(0, "report.pdf"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIngest(t *testing.T) {
	s, ms, objects, events := newTestService()
	data := []byte("%PDF-1.4 sample content")

	doc, err := s.Ingest(context.Background(), 1, RootID, "report.pdf", data)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.DocName != "report.pdf" {
		t.Errorf("name = %q", doc.DocName)
	}
	if doc.Type != models.KindDocument {
		t.Errorf("type = %q, want %q", doc.Type, models.KindDocument)
	}
	if doc.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", doc.Size, len(data))
	}
	wantKey := objectKey(RootID, "report.pdf")
	if doc.Location != wantKey {
		t.Errorf("location = %q, want %q", doc.Location, wantKey)
	}

	stored := objects.buckets[BucketName(1)][wantKey]
	if !bytes.Equal(stored, data) {
		t.Errorf("对象存储中的字节与上传不一致")
	}
	if _, err := ms.GetLiveDoc(context.Background(), 1, doc.Did); err != nil {
		t.Errorf("上传后文档应可见: %v", err)
	}
	if got := events.byType(models.DocEventCreated); len(got) != 1 {
		t.Errorf("created 事件数 = %d, want 1", len(got))
	}
}

func TestIngestRenumbersOnCollision(t *testing.T) {
	s, _, objects, _ := newTestService()
	ctx := context.Background()

	first, err := s.Ingest(ctx, 1, RootID, "report.pdf", []byte("one"))
	if err != nil {
		t.Fatalf("第一次 Ingest: %v", err)
	}
	second, err := s.Ingest(ctx, 1, RootID, "report.pdf", []byte("two"))
	if err != nil {
		t.Fatalf("第二次 Ingest: %v", err)
	}
	if first.DocName != "report.pdf" || second.DocName != "report_1.pdf" {
		t.Errorf("got %q / %q", first.DocName, second.DocName)
	}
	// 两份内容各自独立存放。
	if objects.objectCount(BucketName(1)) != 2 {
		t.Errorf("对象数 = %d, want 2", objects.objectCount(BucketName(1)))
	}
}

func TestIngestParentMustExist(t *testing.T) {
	s, _, objects, _ := newTestService()

	_, err := s.Ingest(context.Background(), 1, 9999, "report.pdf", []byte("x"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if objects.putCalls != 0 {
		t.Errorf("校验失败前不应写对象存储")
	}
}

func TestIngestStorageFailureLeavesNoRows(t *testing.T) {
	s, ms, objects, _ := newTestService()
	objects.failPut = errors.New("connection refused")

	_, err := s.Ingest(context.Background(), 1, RootID, "report.pdf", []byte("x"))
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Errorf("got %v, want ErrStorage", err)
	}
	if len(ms.docs) != 0 {
		t.Errorf("存储失败后不应留下文档行: %d 行", len(ms.docs))
	}
}

func TestIngestRetriesAfterConcurrentConflict(t *testing.T) {
	s, ms, objects, _ := newTestService()

	// 模拟并发上传者在名字解析与行创建之间抢先落库。
	ms.createHook = func(doc *models.DocInfo) error {
		ms.nextDid++
		winner := models.DocInfo{
			Did: ms.nextDid, UID: doc.UID, ParentID: doc.ParentID,
			DocName: doc.DocName, Type: doc.Type,
		}
		ms.docs[winner.Did] = &winner
		return apperrors.NameConflictf("名称 '%s' 已被占用", doc.DocName)
	}

	doc, err := s.Ingest(context.Background(), 1, RootID, "report.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.DocName != "report_1.pdf" {
		t.Errorf("落败方应带新名字重试, got %q", doc.DocName)
	}
	// 第一次写入的对象已被补偿删除。
	if objects.removeCalls != 1 {
		t.Errorf("removeCalls = %d, want 1", objects.removeCalls)
	}
	if objects.objectCount(BucketName(1)) != 1 {
		t.Errorf("对象数 = %d, want 1", objects.objectCount(BucketName(1)))
	}
}

func TestIngestPlaceFailureCompensates(t *testing.T) {
	s, ms, objects, _ := newTestService()
	ms.failPlace = apperrors.Persistencef(errors.New("deadlock"), "放置文档")

	_, err := s.Ingest(context.Background(), 1, RootID, "report.pdf", []byte("x"))
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Errorf("got %v, want ErrPersistence", err)
	}
	if objects.objectCount(BucketName(1)) != 0 {
		t.Errorf("放置失败后对象应被补偿删除")
	}
	// 文档行被回收为软删除，不再占用名字。
	for _, d := range ms.docs {
		if !d.IsDeleted {
			t.Errorf("残留活跃行: %+v", d)
		}
	}
}

func TestIngestLazyBucketCreation(t *testing.T) {
	s, _, objects, _ := newTestService()
	ctx := context.Background()

	if _, err := s.Ingest(ctx, 1, RootID, "a.txt", []byte("a")); err != nil {
		t.Fatalf("第一次 Ingest: %v", err)
	}
	if _, err := s.Ingest(ctx, 1, RootID, "b.txt", []byte("b")); err != nil {
		t.Fatalf("第二次 Ingest: %v", err)
	}
	if objects.makeBucketCalls != 1 {
		t.Errorf("makeBucketCalls = %d, want 1", objects.makeBucketCalls)
	}
}

func TestIngestAppliesAutoTags(t *testing.T) {
	s, ms, _, _ := newTestService()
	ctx := context.Background()

	tag, err := s.CreateTag(ctx, 1, "pdfs", `\.pdf$`, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	plain, err := s.CreateTag(ctx, 1, "manual", "", 1, 1, "")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	doc, err := s.Ingest(ctx, 1, RootID, "report.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !ms.tagDocs[[2]int64{tag.TagID, doc.Did}] {
		t.Errorf("命中 regx 的标签应被自动应用")
	}
	if ms.tagDocs[[2]int64{plain.TagID, doc.Did}] {
		t.Errorf("无 regx 的标签不应被自动应用")
	}
}

func TestIngestIntoFolder(t *testing.T) {
	s, ms, _, _ := newTestService()
	ctx := context.Background()

	folder, err := s.CreateFolder(ctx, 1, RootID, "inbox")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	doc, err := s.Ingest(ctx, 1, folder.Did, "a.txt", []byte("x"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	stored, _ := ms.GetLiveDoc(ctx, 1, doc.Did)
	if stored.ParentID != folder.Did {
		t.Errorf("parent = %d, want %d", stored.ParentID, folder.Did)
	}
	if parent, ok, _ := ms.ParentOf(ctx, doc.Did); !ok || parent != folder.Did {
		t.Errorf("边表 parent = %d (ok=%v), want %d", parent, ok, folder.Did)
	}
}
