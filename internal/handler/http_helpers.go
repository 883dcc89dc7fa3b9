package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkfolio/internal/db"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// postView 是文章在 JSON 接口上的统一形状，列表与详情共用。
type postView struct {
	ID               uint      `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Excerpt          string    `json:"excerpt"`
	Content          string    `json:"content,omitempty"`
	Author           string    `json:"author"`
	AuthorProfession string    `json:"authorProfession"`
	Tags             []string  `json:"tags"`
	Image            string    `json:"image"`
	ReadTime         string    `json:"readTime"`
	Featured         bool      `json:"featured"`
	CommentsEnabled  bool      `json:"commentsEnabled"`
	PublishDate      time.Time `json:"publishDate"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toPostView(post db.Post, withContent bool) postView {
	view := postView{
		ID:               post.ID,
		Slug:             post.Slug,
		Title:            post.Title,
		Excerpt:          post.Excerpt,
		Author:           post.Author,
		AuthorProfession: post.AuthorProfession,
		Tags:             post.TagList(),
		Image:            post.ImageURL,
		ReadTime:         post.ReadTime,
		Featured:         post.Featured,
		CommentsEnabled:  post.CommentsEnabled,
		PublishDate:      post.PublishDate,
		CreatedAt:        post.CreatedAt,
		UpdatedAt:        post.UpdatedAt,
	}
	if withContent {
		view.Content = post.Content
	}
	return view
}

func toPostViews(posts []db.Post, withContent bool) []postView {
	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, toPostView(post, withContent))
	}
	return views
}
