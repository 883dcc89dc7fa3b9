package service

import (
	"time"

	"github.com/inkfolio/internal/db"
)

// fallbackPosts 返回后端不可用时兜底展示的静态文章列表。
// 形状与数据库行完全一致，调用方无需区分数据来源。
func fallbackPosts() []db.Post {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	posts := []db.Post{
		{
			ID:               901,
			Slug:             "building-this-site",
			Title:            "Building This Site",
			Excerpt:          "Notes on the stack behind this portfolio and why it is built the way it is.",
			Content:          "# Building This Site\n\nA walkthrough of the stack behind this portfolio.\n\n- Gin for the API\n- SQLite for storage\n- Markdown for everything you are reading\n",
			Author:           "Site Author",
			AuthorProfession: "Software Engineer",
			ReadTime:         "3 min read",
			Featured:         true,
			Published:        true,
			CommentsEnabled:  true,
			PublishDate:      base,
			CreatedAt:        base,
			UpdatedAt:        base,
		},
		{
			ID:               902,
			Slug:             "offline-mode",
			Title:            "Reading While Offline",
			Excerpt:          "What you see when the backend is unreachable, and why the blog still works.",
			Content:          "When the backend is unreachable this static list keeps the blog readable.\n\nFresh content returns automatically once connectivity is restored.\n",
			Author:           "Site Author",
			AuthorProfession: "Software Engineer",
			ReadTime:         "2 min read",
			Featured:         false,
			Published:        true,
			CommentsEnabled:  false,
			PublishDate:      base.AddDate(0, 0, -14),
			CreatedAt:        base.AddDate(0, 0, -14),
			UpdatedAt:        base.AddDate(0, 0, -14),
		},
	}

	posts[0].SetTagList([]string{"go", "meta"})
	posts[1].SetTagList([]string{"meta"})

	for i := range posts {
		posts[i].Normalize()
	}

	return posts
}
