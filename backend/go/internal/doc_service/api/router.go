package api

import (
	"github.com/gin-gonic/gin"

	"DocHive/backend/go/pkg/ratelimiter"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
// uploadLimiter 为 nil 时不对上传路由做限流。
func SetupRouter(h *Handler, jwtSecret string, uploadLimiter ratelimiter.RateLimiter) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	// 创建认证中间件实例
	authMiddleware := AuthMiddleware(jwtSecret)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	apiV1.Use(TraceMiddleware(), AccessLogMiddleware(), authMiddleware)
	{
		// 文档树路由组
		docs := apiV1.Group("/docs")
		{
			docs.POST("", h.ListDocs)
			docs.GET("/:id", h.GetDoc)
			docs.GET("/:id/children", h.ListChildren)
			docs.POST("/new_folder", h.NewFolder)
			docs.POST("/rename", h.Rename)
			docs.POST("/mv", h.MoveDocs)
			docs.POST("/delete", h.DeleteDocs)

			if uploadLimiter != nil {
				docs.POST("/upload", RateLimitMiddleware(uploadLimiter), h.Upload)
			} else {
				docs.POST("/upload", h.Upload)
			}
		}

		// 标签路由组
		tags := apiV1.Group("/tags")
		{
			tags.POST("", h.CreateTag)
			tags.GET("", h.ListTags)
			tags.POST("/link", h.TagDoc)
			tags.POST("/unlink", h.UntagDoc)
		}

		// 知识库路由组
		kbs := apiV1.Group("/kbs")
		{
			kbs.POST("", h.CreateKb)
			kbs.GET("", h.ListKbs)
			kbs.POST("/link", h.AddToKb)
			kbs.POST("/unlink", h.RemoveFromKb)
		}

		// 会话路由组
		dialogs := apiV1.Group("/dialogs")
		{
			dialogs.POST("", h.CreateDialog)
			dialogs.GET("", h.ListDialogs)
			dialogs.POST("/link", h.LinkDialogKb)
			dialogs.POST("/unlink", h.UnlinkDialogKb)
		}
	}

	return r
}
