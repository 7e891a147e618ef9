package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/doc_service/store"
	"DocHive/backend/go/internal/models"
	"DocHive/backend/go/pkg/logger"
)

// memStore 是 DocStore/RelationStore/MetaStore 的内存实现，
// 保持与 MySQL 实现相同的契约：owner 过滤、活跃行唯一名、幂等边。
type memStore struct {
	mu      sync.Mutex
	nextDid int64
	nextTag int64
	nextKb  int64
	nextDlg int64

	docs    map[int64]*models.DocInfo
	tags    map[int64]*models.TagInfo
	kbs     map[int64]*models.KbInfo
	dialogs map[int64]*models.DialogInfo

	// did -> parent did，根级文档没有条目。parents 模拟 doc2doc 边行，
	// edgeSeq 记录边首次创建的顺序（对应真实实现里的边行 id）。
	parents   map[int64]int64
	edgeSeq   map[int64]int64
	nextEdge  int64
	tagDocs   map[[2]int64]bool
	kbDocs    map[[2]int64]bool
	dialogKbs map[[2]int64]bool

	// createHook 在 CreateDoc 做唯一性检查之前调用，用于模拟并发写。
	createHook func(doc *models.DocInfo) error
	// failPlace 非 nil 时 PlaceDoc 直接返回它。
	failPlace error
}

func newMemStore() *memStore {
	return &memStore{
		docs:      make(map[int64]*models.DocInfo),
		tags:      make(map[int64]*models.TagInfo),
		kbs:       make(map[int64]*models.KbInfo),
		dialogs:   make(map[int64]*models.DialogInfo),
		parents:   make(map[int64]int64),
		edgeSeq:   make(map[int64]int64),
		tagDocs:   make(map[[2]int64]bool),
		kbDocs:    make(map[[2]int64]bool),
		dialogKbs: make(map[[2]int64]bool),
	}
}

func (m *memStore) liveConflict(uid, parentID int64, name string, excludeDid int64) bool {
	for _, d := range m.docs {
		if d.UID == uid && d.ParentID == parentID && !d.IsDeleted &&
			d.Did != excludeDid && strings.EqualFold(d.DocName, name) {
			return true
		}
	}
	return false
}

func (m *memStore) CreateDoc(ctx context.Context, doc *models.DocInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createHook != nil {
		hook := m.createHook
		m.createHook = nil
		if err := hook(doc); err != nil {
			return err
		}
	}
	if m.liveConflict(doc.UID, doc.ParentID, doc.DocName, 0) {
		return apperrors.NameConflictf("名称 '%s' 已被占用", doc.DocName)
	}
	m.nextDid++
	doc.Did = m.nextDid
	cp := *doc
	m.docs[doc.Did] = &cp
	return nil
}

// insertDoc 绕过服务直接插入一行，测试用来铺设已有状态。
func (m *memStore) insertDoc(doc models.DocInfo) *models.DocInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.Did == 0 {
		m.nextDid++
		doc.Did = m.nextDid
	} else if doc.Did > m.nextDid {
		m.nextDid = doc.Did
	}
	m.docs[doc.Did] = &doc
	if doc.ParentID != 0 {
		m.parents[doc.Did] = doc.ParentID
		m.nextEdge++
		m.edgeSeq[doc.Did] = m.nextEdge
	}
	return &doc
}

func (m *memStore) GetLiveDoc(ctx context.Context, uid, did int64) (*models.DocInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[did]
	if !ok || d.UID != uid || d.IsDeleted {
		return nil, apperrors.NotFoundf("文档 %d", did)
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) GetDocAny(ctx context.Context, uid, did int64) (*models.DocInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[did]
	if !ok || d.UID != uid {
		return nil, apperrors.NotFoundf("文档 %d", did)
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) FindDocsByName(ctx context.Context, uid, parentID int64, name string, excludeDid int64) ([]models.DocInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DocInfo
	for _, d := range m.docs {
		if d.UID == uid && d.ParentID == parentID && !d.IsDeleted &&
			d.Did != excludeDid && strings.EqualFold(d.DocName, name) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) RenameDoc(ctx context.Context, did int64, name string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[did]
	if !ok {
		return apperrors.NotFoundf("文档 %d", did)
	}
	if m.liveConflict(d.UID, d.ParentID, name, did) {
		return apperrors.NameConflictf("名称 '%s' 已被占用", name)
	}
	d.DocName = name
	d.UpdatedAt = now
	return nil
}

func (m *memStore) SoftDeleteDoc(ctx context.Context, did int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[did]
	if !ok {
		return apperrors.NotFoundf("文档 %d", did)
	}
	d.IsDeleted = true
	d.DeleteToken = did
	d.UpdatedAt = now
	return nil
}

func (m *memStore) ListByParams(ctx context.Context, p store.ListDocsParams) ([]models.DocInfo, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DocInfo
	for _, d := range m.docs {
		if d.UID != p.UID || d.IsDeleted {
			continue
		}
		if p.Keywords != "" && !strings.Contains(strings.ToLower(d.DocName), strings.ToLower(p.Keywords)) {
			continue
		}
		if p.FolderID != nil && d.ParentID != *p.FolderID {
			continue
		}
		if p.TagID != nil && !m.tagDocs[[2]int64{*p.TagID, d.Did}] {
			continue
		}
		if p.KbID != nil && !m.kbDocs[[2]int64{*p.KbID, d.Did}] {
			continue
		}
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) PlaceDoc(ctx context.Context, parentID, did int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPlace != nil {
		return m.failPlace
	}
	d, ok := m.docs[did]
	if !ok {
		return apperrors.NotFoundf("文档 %d", did)
	}
	if m.liveConflict(d.UID, parentID, d.DocName, did) {
		return apperrors.NameConflictf("名称 '%s' 已被占用", d.DocName)
	}
	if parentID == 0 {
		// 移到根级即删除边行，下次放置视为新边。
		delete(m.parents, did)
		delete(m.edgeSeq, did)
	} else {
		if _, ok := m.parents[did]; !ok {
			m.nextEdge++
			m.edgeSeq[did] = m.nextEdge
		}
		m.parents[did] = parentID
	}
	d.ParentID = parentID
	d.UpdatedAt = now
	return nil
}

func (m *memStore) ParentOf(ctx context.Context, did int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parents[did]
	return p, ok, nil
}

func (m *memStore) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for did, p := range m.parents {
		if p == parentID && !m.docs[did].IsDeleted {
			out = append(out, did)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.edgeSeq[out[i]] < m.edgeSeq[out[j]] })
	return out, nil
}

func (m *memStore) LinkTagDoc(ctx context.Context, tagID, did int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tagDocs[[2]int64{tagID, did}] = true
	return nil
}

func (m *memStore) UnlinkTagDoc(ctx context.Context, tagID, did int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tagDocs, [2]int64{tagID, did})
	return nil
}

func (m *memStore) LinkKbDoc(ctx context.Context, kbID, did int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kbDocs[[2]int64{kbID, did}] = true
	return nil
}

func (m *memStore) UnlinkKbDoc(ctx context.Context, kbID, did int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kbDocs, [2]int64{kbID, did})
	return nil
}

func (m *memStore) LinkDialogKb(ctx context.Context, dialogID, kbID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialogKbs[[2]int64{dialogID, kbID}] = true
	return nil
}

func (m *memStore) UnlinkDialogKb(ctx context.Context, dialogID, kbID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dialogKbs, [2]int64{dialogID, kbID})
	return nil
}

func (m *memStore) CreateTag(ctx context.Context, tag *models.TagInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTag++
	tag.TagID = m.nextTag
	cp := *tag
	m.tags[tag.TagID] = &cp
	return nil
}

func (m *memStore) GetLiveTag(ctx context.Context, uid, tagID int64) (*models.TagInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[tagID]
	if !ok || t.UID != uid || t.IsDeleted {
		return nil, apperrors.NotFoundf("标签 %d", tagID)
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTags(ctx context.Context, uid int64) ([]models.TagInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TagInfo
	for _, t := range m.tags {
		if t.UID == uid && !t.IsDeleted {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) CreateKb(ctx context.Context, kb *models.KbInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextKb++
	kb.KbID = m.nextKb
	cp := *kb
	m.kbs[kb.KbID] = &cp
	return nil
}

func (m *memStore) GetLiveKb(ctx context.Context, uid, kbID int64) (*models.KbInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.kbs[kbID]
	if !ok || k.UID != uid || k.IsDeleted {
		return nil, apperrors.NotFoundf("知识库 %d", kbID)
	}
	cp := *k
	return &cp, nil
}

func (m *memStore) ListKbs(ctx context.Context, uid int64) ([]models.KbInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.KbInfo
	for _, k := range m.kbs {
		if k.UID == uid && !k.IsDeleted {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (m *memStore) CreateDialog(ctx context.Context, dialog *models.DialogInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDlg++
	dialog.DialogID = m.nextDlg
	cp := *dialog
	m.dialogs[dialog.DialogID] = &cp
	return nil
}

func (m *memStore) GetLiveDialog(ctx context.Context, uid, dialogID int64) (*models.DialogInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dialogs[dialogID]
	if !ok || d.UID != uid || d.IsDeleted {
		return nil, apperrors.NotFoundf("会话 %d", dialogID)
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) ListDialogs(ctx context.Context, uid int64) ([]models.DialogInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DialogInfo
	for _, d := range m.dialogs {
		if d.UID == uid && !d.IsDeleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

// memObjects 是 ObjectStore 的内存实现，记录调用次数供断言。
type memObjects struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte

	makeBucketCalls int
	putCalls        int
	removeCalls     int

	failPut error
}

func newMemObjects() *memObjects {
	return &memObjects{buckets: make(map[string]map[string][]byte)}
}

func (o *memObjects) BucketExists(ctx context.Context, bucket string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.buckets[bucket]
	return ok, nil
}

func (o *memObjects) MakeBucket(ctx context.Context, bucket string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.makeBucketCalls++
	o.buckets[bucket] = make(map[string][]byte)
	return nil
}

func (o *memObjects) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.putCalls++
	if o.failPut != nil {
		return o.failPut
	}
	b, ok := o.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		o.buckets[bucket] = b
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b[key] = data
	return nil
}

func (o *memObjects) RemoveObject(ctx context.Context, bucket, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removeCalls++
	if b, ok := o.buckets[bucket]; ok {
		delete(b, key)
	}
	return nil
}

func (o *memObjects) objectCount(bucket string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buckets[bucket])
}

// memEvents 记录发布的事件。
type memEvents struct {
	mu     sync.Mutex
	events []models.DocEvent
}

func (e *memEvents) Publish(ctx context.Context, event models.DocEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *memEvents) byType(t models.DocEventType) []models.DocEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.DocEvent
	for _, ev := range e.events {
		if ev.Event == t {
			out = append(out, ev)
		}
	}
	return out
}

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memStore, *memObjects, *memEvents) {
	ms := newMemStore()
	objects := newMemObjects()
	events := &memEvents{}
	s := NewService(ms, ms, ms, objects, events, logger.New("doc_service_test", "", ""))
	s.now = func() time.Time { return testTime }
	return s, ms, objects, events
}
