package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/logging"
)

const likedPostsSessionKey = "liked_posts"

// analyticsView 是聚合统计在 JSON 接口上的形状，永远是零值而非 null。
func analyticsView(stats db.PostAnalytic) gin.H {
	return gin.H{
		"views":       stats.Views,
		"uniqueViews": stats.UniqueViews,
		"shares":      stats.Shares,
		"likes":       stats.Likes,
		"readingTime": stats.ReadingTime,
	}
}

// TrackView 记录一次文章浏览。同一会话内重复渲染只计一次；
// 统计失败只记日志，不影响页面展示。
func (a *API) TrackView(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	stats, err := a.analytics.TrackView(
		post.ID,
		visitorID(c),
		c.Request.UserAgent(),
		c.Request.Referer(),
		time.Now(),
	)
	if err != nil {
		logging.L().Warn("view tracking failed", zap.String("slug", post.Slug), zap.Error(err))
		c.JSON(http.StatusAccepted, gin.H{"analytics": analyticsView(db.PostAnalytic{PostID: post.ID})})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"analytics": analyticsView(*stats)})
}

// TrackReadingTime 在访客离开时回填阅读时长。总是返回 204：
// 没有先行浏览或停留太短都是约定内的无操作。
func (a *API) TrackReadingTime(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	if err := a.analytics.TrackReadingTime(post.ID, visitorID(c), time.Now()); err != nil {
		logging.L().Warn("reading time tracking failed", zap.String("slug", post.Slug), zap.Error(err))
	}

	c.Status(http.StatusNoContent)
}

// TrackShare 记录一次分享。分享窗口是否打开与统计无关，
// 失败只记日志。
func (a *API) TrackShare(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	var input struct {
		Platform string `json:"platform"`
	}
	if !bindJSON(c, &input, "invalid share payload") {
		return
	}

	if err := a.analytics.TrackShare(post.ID, strings.ToLower(strings.TrimSpace(input.Platform))); err != nil {
		logging.L().Warn("share tracking failed", zap.String("slug", post.Slug), zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// ToggleLike 切换当前会话对文章的点赞。已赞集合存放在会话里，
// 仅作防抖参考，清掉浏览器存储后可以重新点赞。
func (a *API) ToggleLike(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	liked := likedSet(c)
	wantLike := !liked[post.ID]

	likes, err := a.analytics.ToggleLike(post.ID, wantLike)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to update like")
		return
	}

	if wantLike {
		liked[post.ID] = true
	} else {
		delete(liked, post.ID)
	}
	storeLikedSet(c, liked)

	c.JSON(http.StatusOK, gin.H{"liked": wantLike, "likes": likes})
}

// GetPostAnalytics 返回单篇文章的聚合统计。
func (a *API) GetPostAnalytics(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, http.StatusNotFound, "post not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": analyticsView(a.analytics.PostAnalytics(post.ID))})
}

// likedSet 读取会话中的已赞文章集合。序列化为逗号分隔的 id 串，
// cookie 会话不需要额外的编码注册。
func likedSet(c *gin.Context) map[uint]bool {
	liked := make(map[uint]bool)

	session := sessions.Default(c)
	raw, ok := session.Get(likedPostsSessionKey).(string)
	if !ok || raw == "" {
		return liked
	}

	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseUint(part, 10, 32); err == nil {
			liked[uint(id)] = true
		}
	}
	return liked
}

func storeLikedSet(c *gin.Context, liked map[uint]bool) {
	ids := make([]string, 0, len(liked))
	for id := range liked {
		ids = append(ids, strconv.FormatUint(uint64(id), 10))
	}
	sort.Strings(ids)

	session := sessions.Default(c)
	session.Set(likedPostsSessionKey, strings.Join(ids, ","))
	if err := session.Save(); err != nil {
		logging.L().Warn("session save failed", zap.Error(err))
	}
}
