package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/inkfolio/internal/config"
	"github.com/inkfolio/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由。
func SetupRouter(api *handler.API, cfg *config.Config) *gin.Engine {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	r := gin.Default()

	// 会话中间件：管理员登录态与访客的已赞集合共用一个 cookie 会话
	store := cookie.NewStore([]byte(cfg.Session.Secret))
	r.Use(sessions.Sessions(cfg.Session.CookieName, store))

	// 上传文件静态服务
	r.Static(cfg.Upload.URLPath, cfg.Upload.Dir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 公开接口
	public := r.Group("/api")
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/featured", api.ListFeaturedPosts)
		public.GET("/posts/recent", api.ListRecentPosts)
		public.GET("/posts/:slug", api.GetPost)
		public.GET("/posts/:slug/html", api.GetPostHTML)
		public.GET("/posts/:slug/analytics", api.GetPostAnalytics)
		public.GET("/posts/:slug/comments", api.ListComments)
		public.POST("/posts/:slug/comments", api.SubmitComment)
		public.POST("/posts/:slug/view", api.TrackView)
		public.POST("/posts/:slug/reading-time", api.TrackReadingTime)
		public.POST("/posts/:slug/share", api.TrackShare)
		public.POST("/posts/:slug/like", api.ToggleLike)
		public.GET("/trending", api.ListTrendingPosts)
		public.POST("/contact", api.SubmitContact)
		public.POST("/feedback", api.SubmitFeedback)
	}

	// 后台管理接口
	admin := r.Group("/admin/api")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/analytics", api.GetAnalyticsOverview)

			auth.GET("/posts", api.ListAllPosts)
			auth.GET("/posts/:id", api.GetAdminPost)
			auth.POST("/posts", api.CreatePost)
			auth.PUT("/posts/:id", api.UpdatePost)
			auth.PUT("/posts/:id/publish", api.SetPostPublished)
			auth.DELETE("/posts/:id", api.DeletePost)

			auth.GET("/comments", api.ListModerationComments)
			auth.PUT("/comments/:id/approve", api.ApproveComment)
			auth.PUT("/comments/:id/toggle", api.ToggleCommentApproval)
			auth.DELETE("/comments/:id", api.RejectComment)
			auth.POST("/comments/bulk-approve", api.BulkApproveComments)

			auth.GET("/trending", api.GetTrendingList)
			auth.PUT("/trending", api.ReplaceTrendingList)

			auth.GET("/messages", api.ListContactMessages)
			auth.POST("/upload", api.UploadImage)
		}
	}

	return r
}
