package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkfolio/internal/db"
)

func setupServiceTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:svc-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedPost(t *testing.T, gdb *gorm.DB, post db.Post) db.Post {
	t.Helper()
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post
}

func TestListPublishedExcludesDrafts(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedPost(t, gdb, db.Post{Slug: "live", Title: "Live", Published: true})
	seedPost(t, gdb, db.Post{Slug: "draft", Title: "Draft", Published: false})

	svc := NewPostService(gdb, nil)
	posts := svc.ListPublished()

	if len(posts) != 1 {
		t.Fatalf("expected 1 published post, got %d", len(posts))
	}
	if posts[0].Slug != "live" {
		t.Fatalf("unexpected post in published set: %s", posts[0].Slug)
	}
}

func TestListPublishedFallsBackOnBackendError(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewPostService(gdb, nil)

	if err := gdb.Migrator().DropTable(&db.Post{}); err != nil {
		t.Fatalf("failed to drop posts table: %v", err)
	}

	posts := svc.ListPublished()
	if len(posts) == 0 {
		t.Fatal("expected fallback posts when backend is unreachable")
	}
	for _, post := range posts {
		if !post.Published {
			t.Fatalf("fallback post %s is not published", post.Slug)
		}
	}
}

func TestGetBySlugNotFound(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewPostService(gdb, nil)

	if _, err := svc.GetBySlug("no-such-post"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestGetBySlugIgnoresDrafts(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedPost(t, gdb, db.Post{Slug: "secret", Title: "Secret", Published: false})

	svc := NewPostService(gdb, nil)
	if _, err := svc.GetBySlug("secret"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("draft should not resolve, got %v", err)
	}
}

func TestGetBySlugChecksFallback(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewPostService(gdb, nil)

	post, err := svc.GetBySlug("building-this-site")
	if err != nil {
		t.Fatalf("fallback slug should resolve: %v", err)
	}
	if post.Title == "" {
		t.Fatal("fallback post has no title")
	}
}

func TestQuerySortNewestOldestAreReversed(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedPost(t, gdb, db.Post{
			Slug:      fmt.Sprintf("post-%d", i),
			Title:     fmt.Sprintf("Post %d", i),
			Published: true,
			CreatedAt: base.AddDate(0, 0, i),
		})
	}

	svc := NewPostService(gdb, nil)

	newest := svc.Query(PostFilter{Sort: SortNewest}).Posts
	oldest := svc.Query(PostFilter{Sort: SortOldest}).Posts

	if len(newest) != 4 || len(oldest) != 4 {
		t.Fatalf("unexpected result sizes: %d / %d", len(newest), len(oldest))
	}
	for i := range newest {
		if newest[i].ID != oldest[len(oldest)-1-i].ID {
			t.Fatalf("newest and oldest are not exact reverses at index %d", i)
		}
	}
}

func TestQueryTitleSortIsNumericAware(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	seedPost(t, gdb, db.Post{Slug: "a10", Title: "Part 10", Published: true})
	seedPost(t, gdb, db.Post{Slug: "a2", Title: "part 2", Published: true})
	seedPost(t, gdb, db.Post{Slug: "a1", Title: "Part 1", Published: true})

	svc := NewPostService(gdb, nil)
	posts := svc.Query(PostFilter{Sort: SortTitleAsc}).Posts

	got := []string{posts[0].Title, posts[1].Title, posts[2].Title}
	want := []string{"Part 1", "part 2", "Part 10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected title order: %v", got)
		}
	}
}

func TestQueryTagFilter(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	tagged := db.Post{Slug: "go-post", Title: "Go Post", Published: true}
	tagged.SetTagList([]string{"go", "backend"})
	seedPost(t, gdb, tagged)
	seedPost(t, gdb, db.Post{Slug: "other", Title: "Other", Published: true})

	svc := NewPostService(gdb, nil)

	all := svc.Query(PostFilter{Tag: TagAll})
	if all.Total != 2 {
		t.Fatalf("filtering by All should keep everything, got %d", all.Total)
	}

	goOnly := svc.Query(PostFilter{Tag: "go"})
	if goOnly.Total != 1 || goOnly.Posts[0].Slug != "go-post" {
		t.Fatalf("unexpected tag filter result: %+v", goOnly)
	}

	missing := svc.Query(PostFilter{Tag: "rust"})
	if missing.Total != 0 {
		t.Fatalf("absent tag should match nothing, got %d", missing.Total)
	}
}

func TestQuerySearchMatchesTitleExcerptAndTags(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	byTag := db.Post{Slug: "by-tag", Title: "First", Published: true}
	byTag.SetTagList([]string{"Kubernetes"})
	seedPost(t, gdb, byTag)
	seedPost(t, gdb, db.Post{Slug: "by-title", Title: "Kubernetes at home", Published: true})
	seedPost(t, gdb, db.Post{Slug: "by-excerpt", Title: "Third", Excerpt: "Notes on kubernetes", Published: true})
	seedPost(t, gdb, db.Post{Slug: "unrelated", Title: "Cooking", Published: true})

	svc := NewPostService(gdb, nil)
	result := svc.Query(PostFilter{Search: "KUBER"})

	if result.Total != 3 {
		t.Fatalf("expected 3 search hits, got %d", result.Total)
	}
}

func TestQueryMonthFilter(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	march := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	seedPost(t, gdb, db.Post{Slug: "march", Title: "March", Published: true, PublishDate: march})
	seedPost(t, gdb, db.Post{Slug: "april", Title: "April", Published: true, PublishDate: april})

	svc := NewPostService(gdb, nil)
	result := svc.Query(PostFilter{Month: "2025-03"})

	if result.Total != 1 || result.Posts[0].Slug != "march" {
		t.Fatalf("unexpected month filter result: %+v", result.Posts)
	}
}

func TestQueryPagination(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		seedPost(t, gdb, db.Post{
			Slug:      fmt.Sprintf("p-%d", i),
			Title:     fmt.Sprintf("P %d", i),
			Published: true,
			CreatedAt: base.AddDate(0, 0, i),
		})
	}

	svc := NewPostService(gdb, nil)

	first := svc.Query(PostFilter{Page: 1})
	if len(first.Posts) != DefaultPageSize || first.TotalPages != 2 {
		t.Fatalf("unexpected first page: %d posts, %d pages", len(first.Posts), first.TotalPages)
	}

	second := svc.Query(PostFilter{Page: 2})
	if len(second.Posts) != 2 {
		t.Fatalf("expected 2 posts on second page, got %d", len(second.Posts))
	}

	beyond := svc.Query(PostFilter{Page: 5})
	if len(beyond.Posts) != 0 {
		t.Fatalf("out of range page should be empty, got %d", len(beyond.Posts))
	}
}

func TestQueryTrendingSortUsesViewCounts(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	quiet := seedPost(t, gdb, db.Post{Slug: "quiet", Title: "Quiet", Published: true, CreatedAt: base.AddDate(0, 0, 2)})
	popular := seedPost(t, gdb, db.Post{Slug: "popular", Title: "Popular", Published: true, CreatedAt: base})

	analytics := NewAnalyticsService(gdb, nil)
	if _, err := analytics.TrackView(popular.ID, "v1", "", "", base); err != nil {
		t.Fatalf("track view failed: %v", err)
	}

	svc := NewPostService(gdb, analytics)
	posts := svc.Query(PostFilter{Sort: SortTrending}).Posts

	if posts[0].ID != popular.ID || posts[1].ID != quiet.ID {
		t.Fatalf("unexpected trending order: %s before %s", posts[0].Slug, posts[1].Slug)
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewPostService(gdb, nil)

	if _, err := svc.Create(PostInput{Slug: "dup", Title: "One"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(PostInput{Slug: "dup", Title: "Two"}); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestCreatePersistsDisabledComments(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewPostService(gdb, nil)

	created, err := svc.Create(PostInput{Slug: "quiet", Title: "Quiet", Published: true, CommentsEnabled: false})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// false 是零值，必须确认它真的落了库而不是被列默认值吃掉
	var stored db.Post
	if err := gdb.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.CommentsEnabled {
		t.Fatal("comments-disabled flag lost on insert")
	}

	comments := NewCommentService(gdb)
	if _, err := comments.Submit(created.ID, "Ada", "ada@example.com", "hi"); !errors.Is(err, ErrCommentsDisabled) {
		t.Fatalf("expected ErrCommentsDisabled on created post, got %v", err)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "gone", Title: "Gone", Published: true})

	svc := NewPostService(gdb, nil)
	if err := svc.Delete(post.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.Post{}).Where("id = ?", post.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatal("post row still present after delete")
	}

	if err := svc.Delete(post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}
