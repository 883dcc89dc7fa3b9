package db

import (
	"strings"
	"time"
)

// Post 定义了文章模型。Tags 以逗号分隔的形式存储，保持作者给定的顺序。
type Post struct {
	ID               uint   `gorm:"primaryKey"`
	Slug             string `gorm:"size:191;uniqueIndex"`
	Title            string
	Excerpt          string
	Content          string
	Author           string
	AuthorProfession string
	Tags             string
	ImageURL         string
	ReadTime         string
	Featured         bool `gorm:"default:false"`
	Published        bool `gorm:"default:false;index"`
	// 不能带列默认值：gorm 在插入时会跳过携带 default 标签的零值字段，
	// CommentsEnabled=false 会被悄悄写成 true。默认值由请求载荷层决定。
	CommentsEnabled  bool
	PublishDate      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TagList 将存储的标签列拆分为有序切片，空列返回空切片。
func (p *Post) TagList() []string {
	if strings.TrimSpace(p.Tags) == "" {
		return []string{}
	}

	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// SetTagList 规范化并写回标签列，忽略空白项。
func (p *Post) SetTagList(tags []string) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	p.Tags = strings.Join(cleaned, ",")
}

// HasTag 判断文章是否带有指定标签（精确匹配）。
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.TagList() {
		if t == tag {
			return true
		}
	}
	return false
}

// Normalize 为缺失字段补齐默认值。所有入库行的兜底规则都集中在这里，
// 调用方不再各自内联填补。
func (p *Post) Normalize() {
	if strings.TrimSpace(p.Author) == "" {
		p.Author = "Unknown"
	}
	if strings.TrimSpace(p.ReadTime) == "" {
		p.ReadTime = "1 min read"
	}
	if p.PublishDate.IsZero() {
		p.PublishDate = p.CreatedAt
	}
}
