package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/service"
)

const (
	visitorCookieName   = "if_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// visitorID 返回当前访客的匿名标识，必要时下发新的 cookie。
func visitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && id != "" {
		return id
	}
	id := uuid.New().String()
	c.SetCookie(visitorCookieName, id, visitorCookieMaxAge, "/", "", false, true)
	return id
}

// ListPosts 返回博客索引页的数据：过滤、排序与分页都在这里完成。
// 任何过滤条件变化由前端重置到第 1 页。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Tag:     strings.TrimSpace(c.Query("tag")),
		Search:  strings.TrimSpace(c.Query("search")),
		Month:   strings.TrimSpace(c.Query("month")),
		Sort:    strings.TrimSpace(c.DefaultQuery("sort", service.SortNewest)),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: service.DefaultPageSize,
	}

	result := a.posts.Query(filter)

	c.JSON(http.StatusOK, gin.H{
		"posts":      toPostViews(result.Posts, false),
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
		"perPage":    result.PerPage,
		"months":     a.posts.Months(),
	})
}

// ListFeaturedPosts 返回精选文章。
func (a *API) ListFeaturedPosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"posts": toPostViews(a.posts.ListFeatured(), false)})
}

// ListRecentPosts 返回最近发布的文章。
func (a *API) ListRecentPosts(c *gin.Context) {
	limit := parsePositiveInt(c.DefaultQuery("limit", "3"), 3)
	c.JSON(http.StatusOK, gin.H{"posts": toPostViews(a.posts.ListRecent(limit), false)})
}

// GetPost 返回单篇文章及其聚合统计。未命中（含兜底列表）返回 404，
// 由前端跳转到 not-found 页。
func (a *API) GetPost(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	stats := a.analytics.PostAnalytics(post.ID)

	c.JSON(http.StatusOK, gin.H{
		"post":      toPostView(*post, true),
		"analytics": analyticsView(stats),
		"liked":     likedSet(c)[post.ID],
	})
}

// GetPostHTML 返回渲染并清洗后的文章正文。
func (a *API) GetPostHTML(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slug": post.Slug,
		"html": a.markdown.Render(post.Content),
	})
}

// ListTrendingPosts 按管理员排好的顺序返回热门文章。列表缺失或为空时
// 返回空集合，公共读路径不暴露配置错误。
func (a *API) ListTrendingPosts(c *gin.Context) {
	slugs, err := a.trending.List()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"posts": []postView{}})
		return
	}

	posts := make([]db.Post, 0, len(slugs))
	for _, slug := range slugs {
		if post, err := a.posts.GetBySlug(slug); err == nil {
			posts = append(posts, *post)
		}
	}

	c.JSON(http.StatusOK, gin.H{"posts": toPostViews(posts, false)})
}

// ListComments 返回文章的公开评论，时间正序。
func (a *API) ListComments(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	comments, err := a.comments.ListApproved(post.ID)
	if err != nil {
		// 公共读路径降级为空列表
		comments = []db.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{"comments": commentViews(comments, false)})
}

// SubmitComment 接收访客评论，始终进入待审核状态。
func (a *API) SubmitComment(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Comment string `json:"comment"`
	}
	if !bindJSON(c, &input, "invalid comment payload") {
		return
	}

	comment, err := a.comments.Submit(post.ID, input.Name, input.Email, input.Comment)
	switch {
	case errors.Is(err, service.ErrCommentFields):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrCommentsDisabled):
		respondError(c, http.StatusForbidden, err.Error())
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "failed to submit comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": commentView(*comment, false)})
}

// SubmitContact 保存联系表单提交。
func (a *API) SubmitContact(c *gin.Context) {
	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if !bindJSON(c, &input, "invalid contact payload") {
		return
	}

	if _, err := a.contacts.SubmitContact(input.Name, input.Email, input.Subject, input.Message); err != nil {
		if errors.Is(err, service.ErrContactFields) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to submit message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// SubmitFeedback 保存站点反馈。
func (a *API) SubmitFeedback(c *gin.Context) {
	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !bindJSON(c, &input, "invalid feedback payload") {
		return
	}

	if _, err := a.contacts.SubmitFeedback(input.Rating, input.Comment); err != nil {
		if errors.Is(err, service.ErrFeedbackRating) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to submit feedback")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

type commentViewModel struct {
	ID        uint   `json:"id"`
	PostID    uint   `json:"postId"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Comment   string `json:"comment"`
	Approved  bool   `json:"approved"`
	CreatedAt string `json:"createdAt"`
}

// commentView 将评论转换为接口形状。公开视图不携带邮箱。
func commentView(comment db.Comment, admin bool) commentViewModel {
	view := commentViewModel{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Name:      comment.Name,
		Comment:   comment.Body,
		Approved:  comment.Approved,
		CreatedAt: comment.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if admin {
		view.Email = comment.Email
	}
	return view
}

func commentViews(comments []db.Comment, admin bool) []commentViewModel {
	views := make([]commentViewModel, 0, len(comments))
	for _, comment := range comments {
		views = append(views, commentView(comment, admin))
	}
	return views
}
