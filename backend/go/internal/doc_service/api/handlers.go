package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"DocHive/backend/go/internal/apperrors"
	"DocHive/backend/go/internal/doc_service/service"
	"DocHive/backend/go/internal/doc_service/store"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// maxUploadSize 限制单次上传的文件大小。
const maxUploadSize = 512 << 20 // 512MB

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// respondError 把核心错误映射为 HTTP 状态码，并带上稳定的种类标签。
func respondError(c *gin.Context, err error) {
	kind := apperrors.Kind(err)
	var status int
	switch kind {
	case "not_found":
		status = http.StatusNotFound
	case "name_conflict", "cycle", "cross_owner":
		status = http.StatusConflict
	case "storage_failure":
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

// batchOutcome 是批量操作中单个 id 的响应条目。
type batchOutcome struct {
	Did   int64  `json:"did"`
	OK    bool   `json:"ok"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

func toOutcomes(results []service.BatchResult) []batchOutcome {
	outcomes := make([]batchOutcome, 0, len(results))
	for _, r := range results {
		o := batchOutcome{Did: r.Did, OK: r.Err == nil}
		if r.Err != nil {
			o.Kind = apperrors.Kind(r.Err)
			o.Error = r.Err.Error()
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// --- 文档树 ---

// ListDocsRequest 定义了文档列表请求的 JSON 结构。
type ListDocsRequest struct {
	Filter struct {
		Keywords string `json:"keywords"`
		FolderID *int64 `json:"folder_id"`
		TagID    *int64 `json:"tag_id"`
		KbID     *int64 `json:"kb_id"`
	} `json:"filter"`
	SortBy  string `json:"sortby"`
	Desc    bool   `json:"desc"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// ListDocs 按过滤条件返回文档列表。
func (h *Handler) ListDocs(c *gin.Context) {
	var req ListDocsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docs, total, err := h.service.ListDocs(c.Request.Context(), store.ListDocsParams{
		UID:      currentUID(c),
		Keywords: req.Filter.Keywords,
		FolderID: req.Filter.FolderID,
		TagID:    req.Filter.TagID,
		KbID:     req.Filter.KbID,
		SortBy:   req.SortBy,
		Desc:     req.Desc,
		Page:     req.Page,
		PerPage:  req.PerPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"docs": docs, "total": total})
}

// Upload 处理 multipart 文件上传；did 表单字段是目标文件夹 id，0 为根。
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 file 字段"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "文件超过大小上限"})
		return
	}
	parentID, err := strconv.ParseInt(c.PostForm("did"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 did 字段"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.Ingest(c.Request.Context(), currentUID(c), parentID, fileHeader.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc": doc})
}

// DeleteDocsRequest 定义了批量删除请求的 JSON 结构。
type DeleteDocsRequest struct {
	Dids []int64 `json:"dids" binding:"required"`
}

// DeleteDocs 软删除一批文档，返回逐条结果。
func (h *Handler) DeleteDocs(c *gin.Context) {
	var req DeleteDocsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := h.service.DeleteDocs(c.Request.Context(), currentUID(c), req.Dids)
	c.JSON(http.StatusOK, gin.H{"results": toOutcomes(results)})
}

// MoveDocsRequest 定义了批量移动请求的 JSON 结构。
type MoveDocsRequest struct {
	Dids    []int64 `json:"dids" binding:"required"`
	DestDid int64   `json:"dest_did"`
}

// MoveDocs 把一批文档移动到目标文件夹，返回逐条结果。
func (h *Handler) MoveDocs(c *gin.Context) {
	var req MoveDocsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := h.service.MoveDocs(c.Request.Context(), currentUID(c), req.DestDid, req.Dids)
	c.JSON(http.StatusOK, gin.H{"results": toOutcomes(results)})
}

// NewFolderRequest 定义了创建文件夹请求的 JSON 结构。
type NewFolderRequest struct {
	ParentID int64  `json:"parent_id"`
	Name     string `json:"name" binding:"required"`
}

// NewFolder 在指定父节点下创建文件夹。
func (h *Handler) NewFolder(c *gin.Context) {
	var req NewFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	folder, err := h.service.CreateFolder(c.Request.Context(), currentUID(c), req.ParentID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc": folder})
}

// RenameRequest 定义了重命名请求的 JSON 结构。
type RenameRequest struct {
	Did  int64  `json:"did" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// Rename 显式重命名一个文档，冲突时返回 409。
func (h *Handler) Rename(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.service.Rename(c.Request.Context(), currentUID(c), req.Did, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc": doc})
}

// GetDoc 按 id 返回文档行，含已软删除的行，供审计查询。
func (h *Handler) GetDoc(c *gin.Context) {
	did, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的文档 ID 格式"})
		return
	}
	doc, err := h.service.GetDocForAudit(c.Request.Context(), currentUID(c), did)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc": doc, "is_deleted": doc.IsDeleted})
}

// ListChildren 按放置顺序返回文件夹的直接子文档。
func (h *Handler) ListChildren(c *gin.Context) {
	folderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的文件夹 ID 格式"})
		return
	}
	children, err := h.service.ListChildren(c.Request.Context(), currentUID(c), folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"docs": children})
}

// --- 标签 ---

// CreateTagRequest 定义了创建标签请求的 JSON 结构。
type CreateTagRequest struct {
	Name  string `json:"name" binding:"required"`
	Regx  string `json:"regx"`
	Color int64  `json:"color"`
	Icon  int64  `json:"icon"`
	Dir   string `json:"dir"`
}

// CreateTag 创建一个标签。
func (h *Handler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.service.CreateTag(c.Request.Context(), currentUID(c), req.Name, req.Regx, req.Color, req.Icon, req.Dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// ListTags 返回用户的全部标签。
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// TagLinkRequest 定义了标签关联请求的 JSON 结构。
type TagLinkRequest struct {
	TagID int64 `json:"tag_id" binding:"required"`
	Did   int64 `json:"did" binding:"required"`
}

// TagDoc 为文档打上标签；重复链接是幂等成功。
func (h *Handler) TagDoc(c *gin.Context) {
	var req TagLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.TagDoc(c.Request.Context(), currentUID(c), req.TagID, req.Did); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// UntagDoc 移除文档上的标签。
func (h *Handler) UntagDoc(c *gin.Context) {
	var req TagLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UntagDoc(c.Request.Context(), currentUID(c), req.TagID, req.Did); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// --- 知识库 ---

// CreateKbRequest 定义了创建知识库请求的 JSON 结构。
type CreateKbRequest struct {
	Name string `json:"name" binding:"required"`
	Icon int64  `json:"icon"`
}

// CreateKb 创建一个知识库。
func (h *Handler) CreateKb(c *gin.Context) {
	var req CreateKbRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kb, err := h.service.CreateKb(c.Request.Context(), currentUID(c), req.Name, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kb": kb})
}

// ListKbs 返回用户的全部知识库。
func (h *Handler) ListKbs(c *gin.Context) {
	kbs, err := h.service.ListKbs(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kbs": kbs})
}

// KbLinkRequest 定义了知识库收录请求的 JSON 结构。
type KbLinkRequest struct {
	KbID int64 `json:"kb_id" binding:"required"`
	Did  int64 `json:"did" binding:"required"`
}

// AddToKb 把文档收录进知识库。
func (h *Handler) AddToKb(c *gin.Context) {
	var req KbLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.AddToKb(c.Request.Context(), currentUID(c), req.KbID, req.Did); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// RemoveFromKb 把文档移出知识库。
func (h *Handler) RemoveFromKb(c *gin.Context) {
	var req KbLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RemoveFromKb(c.Request.Context(), currentUID(c), req.KbID, req.Did); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// --- 会话 ---

// CreateDialogRequest 定义了创建会话请求的 JSON 结构。
type CreateDialogRequest struct {
	Name    string          `json:"name" binding:"required"`
	History json.RawMessage `json:"history"`
}

// CreateDialog 创建一条会话记录。
func (h *Handler) CreateDialog(c *gin.Context) {
	var req CreateDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dialog, err := h.service.CreateDialog(c.Request.Context(), currentUID(c), req.Name, datatypes.JSON(req.History))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dialog": dialog})
}

// ListDialogs 返回用户的全部会话。
func (h *Handler) ListDialogs(c *gin.Context) {
	dialogs, err := h.service.ListDialogs(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dialogs": dialogs})
}

// DialogKbLinkRequest 定义了会话引用知识库请求的 JSON 结构。
type DialogKbLinkRequest struct {
	DialogID int64 `json:"dialog_id" binding:"required"`
	KbID     int64 `json:"kb_id" binding:"required"`
}

// LinkDialogKb 让会话引用一个知识库。
func (h *Handler) LinkDialogKb(c *gin.Context) {
	var req DialogKbLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.LinkDialogKb(c.Request.Context(), currentUID(c), req.DialogID, req.KbID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// UnlinkDialogKb 解除会话对知识库的引用。
func (h *Handler) UnlinkDialogKb(c *gin.Context) {
	var req DialogKbLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UnlinkDialogKb(c.Request.Context(), currentUID(c), req.DialogID, req.KbID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
