package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/service"
)

const (
	sessionUserIDKey     = "user_id"
	sessionUserEmailKey  = "user_email"
	sessionLastActiveKey = "last_active"
)

// Login 处理管理员登录请求。
func (a *API) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input, "invalid login payload") {
		return
	}

	user, err := a.users.Authenticate(input.Email, input.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUserEmailKey, user.Email)
	session.Set(sessionLastActiveKey, time.Now().Unix())
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email})
}

// Logout 清除管理员会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AuthRequired 校验管理员会话，并执行滚动的空闲超时：
// 超过配置窗口（默认 10 分钟）无请求的会话直接作废。
func (a *API) AuthRequired() gin.HandlerFunc {
	idle := a.idle.SessionIdle

	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(sessionUserIDKey)
		if userID == nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		if lastActive, ok := session.Get(sessionLastActiveKey).(int64); ok {
			if time.Since(time.Unix(lastActive, 0)) > idle {
				session.Clear()
				_ = session.Save()
				respondError(c, http.StatusUnauthorized, "session expired")
				c.Abort()
				return
			}
		}

		session.Set(sessionLastActiveKey, time.Now().Unix())
		_ = session.Save()
		c.Next()
	}
}

// ShowDashboard 汇总后台首页的全部计数与作者维度统计。
// 文章、评论与聚合统计各自独立拉取，任何一路失败都降级为空集合，
// 面板用零值继续渲染。
func (a *API) ShowDashboard(c *gin.Context) {
	posts, err := a.posts.ListAll()
	if err != nil {
		posts = nil
	}

	comments, err := a.comments.ListAll()
	if err != nil {
		comments = nil
	}

	analytics := a.analytics.AllPostAnalytics()

	c.JSON(http.StatusOK, gin.H{
		"stats":   service.BuildDashboardStats(posts, comments, analytics),
		"authors": service.BuildAuthorStats(posts),
	})
}

// ListAllPosts 返回全部文章（含草稿）供后台编辑列表使用。
func (a *API) ListAllPosts(c *gin.Context) {
	posts, err := a.posts.ListAll()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": toPostViews(posts, false)})
}

// GetAdminPost 返回单篇文章供编辑器加载。
func (a *API) GetAdminPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": toPostView(*post, true)})
}

type postPayload struct {
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Excerpt          string    `json:"excerpt"`
	Content          string    `json:"content"`
	Author           string    `json:"author"`
	AuthorProfession string    `json:"authorProfession"`
	Tags             []string  `json:"tags"`
	Image            string    `json:"image"`
	ReadTime         string    `json:"readTime"`
	Featured         bool      `json:"featured"`
	Published        bool      `json:"published"`
	CommentsEnabled  *bool     `json:"commentsEnabled"`
	PublishDate      time.Time `json:"publishDate"`
}

func (p postPayload) toInput() service.PostInput {
	// 载荷未提及评论开关时默认开启；显式的 false 必须原样落库
	commentsEnabled := true
	if p.CommentsEnabled != nil {
		commentsEnabled = *p.CommentsEnabled
	}

	return service.PostInput{
		Slug:             p.Slug,
		Title:            p.Title,
		Excerpt:          p.Excerpt,
		Content:          p.Content,
		Author:           p.Author,
		AuthorProfession: p.AuthorProfession,
		Tags:             p.Tags,
		ImageURL:         p.Image,
		ReadTime:         p.ReadTime,
		Featured:         p.Featured,
		Published:        p.Published,
		CommentsEnabled:  commentsEnabled,
		PublishDate:      p.PublishDate,
	}
}

// CreatePost 创建新文章。
func (a *API) CreatePost(c *gin.Context) {
	var payload postPayload
	if !bindJSON(c, &payload, "invalid post payload") {
		return
	}

	post, err := a.posts.Create(payload.toInput())
	if err != nil {
		respondError(c, postErrorStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": toPostView(*post, true)})
}

// UpdatePost 更新已有文章。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload postPayload
	if !bindJSON(c, &payload, "invalid post payload") {
		return
	}

	post, err := a.posts.Update(id, payload.toInput())
	if err != nil {
		respondError(c, postErrorStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": toPostView(*post, true)})
}

// SetPostPublished 切换文章的发布状态。
func (a *API) SetPostPublished(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var input struct {
		Published bool `json:"published"`
	}
	if !bindJSON(c, &input, "invalid publish payload") {
		return
	}

	if err := a.posts.SetPublished(id, input.Published); err != nil {
		respondError(c, postErrorStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeletePost 物理删除文章。
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.posts.Delete(id); err != nil {
		respondError(c, postErrorStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func postErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrSlugRequired),
		errors.Is(err, service.ErrTitleRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListModerationComments 返回审核视图的评论，待审与全部两种模式。
func (a *API) ListModerationComments(c *gin.Context) {
	var (
		list []db.Comment
		err  error
	)
	if c.DefaultQuery("filter", "all") == "pending" {
		list, err = a.comments.ListPending()
	} else {
		list, err = a.comments.ListAll()
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": commentViews(list, true)})
}

// ApproveComment 将评论置为公开可见。
func (a *API) ApproveComment(c *gin.Context) {
	a.mutateComment(c, a.comments.Approve)
}

// ToggleCommentApproval 翻转评论的审核状态。
func (a *API) ToggleCommentApproval(c *gin.Context) {
	a.mutateComment(c, a.comments.ToggleApproval)
}

// RejectComment 物理删除评论。
func (a *API) RejectComment(c *gin.Context) {
	a.mutateComment(c, a.comments.Reject)
}

func (a *API) mutateComment(c *gin.Context, op func(uint) error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := op(id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		// 管理端的写失败必须显式暴露
		respondError(c, http.StatusInternalServerError, "comment update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BulkApproveComments 一次性通过全部待审评论，零条待审不算错误。
func (a *API) BulkApproveComments(c *gin.Context) {
	approved, err := a.comments.BulkApprove()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "bulk approve failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": approved})
}

// GetTrendingList 返回后台配置的热门 slug 列表。
func (a *API) GetTrendingList(c *gin.Context) {
	slugs, err := a.trending.List()
	if err != nil {
		// 表缺失等配置问题要给出明确提示
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"slugs": slugs})
}

// ReplaceTrendingList 整体替换热门列表。
func (a *API) ReplaceTrendingList(c *gin.Context) {
	var input struct {
		Slugs []string `json:"slugs"`
	}
	if !bindJSON(c, &input, "invalid trending payload") {
		return
	}

	if err := a.trending.Replace(input.Slugs); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListContactMessages 返回联系表单的提交记录。
func (a *API) ListContactMessages(c *gin.Context) {
	messages, err := a.contacts.ListContactMessages()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetAnalyticsOverview 返回全部文章的聚合统计，键为文章 id。
func (a *API) GetAnalyticsOverview(c *gin.Context) {
	overview := a.analytics.AllPostAnalytics()

	views := make(map[uint]gin.H, len(overview))
	for id, stats := range overview {
		views[id] = analyticsView(stats)
	}
	c.JSON(http.StatusOK, gin.H{"analytics": views})
}
