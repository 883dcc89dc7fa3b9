package service

import (
	"math"
	"sort"
	"time"

	"github.com/inkfolio/internal/db"
)

// DashboardStats 汇总后台首页需要的全部计数。
type DashboardStats struct {
	TotalPosts      int    `json:"totalPosts"`
	PublishedPosts  int    `json:"publishedPosts"`
	DraftPosts      int    `json:"draftPosts"`
	FeaturedPosts   int    `json:"featuredPosts"`
	TotalComments   int    `json:"totalComments"`
	PendingComments int    `json:"pendingComments"`
	TotalViews      uint64 `json:"totalViews"`
	TotalShares     uint64 `json:"totalShares"`
	TotalLikes      int64  `json:"totalLikes"`
	AvgViewsPerPost int    `json:"avgViewsPerPost"`
	EngagementRate  int    `json:"engagementRate"`
}

// AuthorStats 按作者维度统计文章分布。
type AuthorStats struct {
	Author       string    `json:"author"`
	Total        int       `json:"total"`
	Published    int       `json:"published"`
	Draft        int       `json:"draft"`
	Featured     int       `json:"featured"`
	EarliestPost time.Time `json:"earliestPost"`
	LatestPost   time.Time `json:"latestPost"`
}

// BuildDashboardStats 由已取得的文章、评论与聚合统计推导出面板计数。
// 纯函数：输入集合变化时重新调用即可。空集合下所有比例均为 0，
// 不会出现除零。
func BuildDashboardStats(posts []db.Post, comments []db.Comment, analytics map[uint]db.PostAnalytic) DashboardStats {
	stats := DashboardStats{TotalPosts: len(posts), TotalComments: len(comments)}

	for _, post := range posts {
		if post.Published {
			stats.PublishedPosts++
		}
		if post.Featured {
			stats.FeaturedPosts++
		}
	}
	stats.DraftPosts = stats.TotalPosts - stats.PublishedPosts

	for _, comment := range comments {
		if !comment.Approved {
			stats.PendingComments++
		}
	}

	for _, row := range analytics {
		stats.TotalViews += row.Views
		stats.TotalShares += row.Shares
		stats.TotalLikes += row.Likes
	}

	if stats.TotalPosts > 0 {
		stats.AvgViewsPerPost = int(math.Round(float64(stats.TotalViews) / float64(stats.TotalPosts)))
	}

	if stats.TotalViews > 0 {
		engaged := float64(stats.TotalShares) + float64(stats.TotalLikes) + float64(stats.TotalComments)
		stats.EngagementRate = int(math.Round(engaged / float64(stats.TotalViews) * 100))
	}

	return stats
}

// BuildAuthorStats 按作者字符串精确分组统计。缺失作者归入 Unknown 桶
// （Normalize 已经完成改写）。结果按作者名排序，便于稳定展示。
func BuildAuthorStats(posts []db.Post) []AuthorStats {
	byAuthor := make(map[string]*AuthorStats)

	for _, post := range posts {
		author := post.Author
		if author == "" {
			author = "Unknown"
		}

		entry, ok := byAuthor[author]
		if !ok {
			entry = &AuthorStats{
				Author:       author,
				EarliestPost: post.CreatedAt,
				LatestPost:   post.CreatedAt,
			}
			byAuthor[author] = entry
		}

		entry.Total++
		if post.Published {
			entry.Published++
		} else {
			entry.Draft++
		}
		if post.Featured {
			entry.Featured++
		}
		if post.CreatedAt.Before(entry.EarliestPost) {
			entry.EarliestPost = post.CreatedAt
		}
		if post.CreatedAt.After(entry.LatestPost) {
			entry.LatestPost = post.CreatedAt
		}
	}

	result := make([]AuthorStats, 0, len(byAuthor))
	for _, entry := range byAuthor {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Author < result[j].Author
	})
	return result
}
