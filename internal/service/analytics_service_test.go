package service

import (
	"testing"
	"time"

	"github.com/inkfolio/internal/db"
)

func TestTrackViewCountsOncePerSessionView(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "tracked", Title: "Tracked", Published: true})

	svc := NewAnalyticsService(gdb, nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	stats, err := svc.TrackView(post.ID, "visitor-1", "ua", "ref", base)
	if err != nil {
		t.Fatalf("first view failed: %v", err)
	}
	if stats.Views != 1 || stats.UniqueViews != 1 {
		t.Fatalf("expected views=1 unique=1, got %d/%d", stats.Views, stats.UniqueViews)
	}

	// 同一会话内的重复渲染不再计数
	stats, err = svc.TrackView(post.ID, "visitor-1", "ua", "ref", base.Add(time.Second))
	if err != nil {
		t.Fatalf("re-render view failed: %v", err)
	}
	if stats.Views != 1 {
		t.Fatalf("re-render double counted: views=%d", stats.Views)
	}

	var events int64
	if err := gdb.Model(&db.ViewEvent{}).Where("post_id = ?", post.ID).Count(&events).Error; err != nil {
		t.Fatalf("event count failed: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected 1 view event, got %d", events)
	}

	// 第二位访客浏览量上升，去重只对单访客生效
	stats, err = svc.TrackView(post.ID, "visitor-2", "ua", "", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("second visitor failed: %v", err)
	}
	if stats.Views != 2 || stats.UniqueViews != 2 {
		t.Fatalf("expected views=2 unique=2, got %d/%d", stats.Views, stats.UniqueViews)
	}
}

func TestTrackViewCountsAgainAfterDedupWindow(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "revisit", Title: "Revisit", Published: true})

	svc := NewAnalyticsService(gdb, nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, err := svc.TrackView(post.ID, "v1", "", "", base); err != nil {
		t.Fatalf("first view failed: %v", err)
	}

	// 离开信标丢失，访客第二天重访：必须算新的浏览，而不是同一次阅读
	stats, err := svc.TrackView(post.ID, "v1", "", "", base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("revisit failed: %v", err)
	}
	if stats.Views != 2 {
		t.Fatalf("next-day revisit not counted: views=%d", stats.Views)
	}
	if stats.UniqueViews != 1 {
		t.Fatalf("revisit is not a new unique visitor: unique=%d", stats.UniqueViews)
	}
}

func TestTrackViewExpiresStaleEntries(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "sweep", Title: "Sweep", Published: true})

	svc := NewAnalyticsService(gdb, nil).WithDedupWindow(time.Minute)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, err := svc.TrackView(post.ID, "stale-1", "", "", base); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if _, err := svc.TrackView(post.ID, "stale-2", "", "", base); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	// 超窗后的下一次写入顺带清走滞留条目，状态表不随访客数无限增长
	if _, err := svc.TrackView(post.ID, "fresh", "", "", base.Add(2*time.Minute)); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	svc.mu.Lock()
	size := len(svc.viewing)
	svc.mu.Unlock()
	if size != 1 {
		t.Fatalf("expected only the fresh entry to remain, got %d", size)
	}
}

func TestTrackViewFailureReleasesViewingState(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "retry", Title: "Retry", Published: true})

	svc := NewAnalyticsService(gdb, nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := gdb.Migrator().DropTable(&db.ViewEvent{}); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, err := svc.TrackView(post.ID, "v1", "", "", base); err == nil {
		t.Fatal("expected view tracking to fail without the events table")
	}

	// 失败不能占住状态机：表恢复后同一访客的下一次浏览必须计数
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("re-migrate failed: %v", err)
	}
	stats, err := svc.TrackView(post.ID, "v1", "", "", base.Add(time.Second))
	if err != nil {
		t.Fatalf("retry view failed: %v", err)
	}
	if stats.Views != 1 {
		t.Fatalf("retried view not counted: views=%d", stats.Views)
	}
}

func TestTrackReadingTimeDiscardsBounces(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "bounce", Title: "Bounce", Published: true})

	svc := NewAnalyticsService(gdb, nil)
	base := time.Now().UTC()

	if _, err := svc.TrackView(post.ID, "v1", "", "", base); err != nil {
		t.Fatalf("track view failed: %v", err)
	}

	if err := svc.TrackReadingTime(post.ID, "v1", base.Add(3*time.Second)); err != nil {
		t.Fatalf("bounce tracking errored: %v", err)
	}

	var event db.ViewEvent
	if err := gdb.Where("post_id = ?", post.ID).First(&event).Error; err != nil {
		t.Fatalf("event load failed: %v", err)
	}
	if event.ReadingTime != 0 {
		t.Fatalf("bounce should not update reading time, got %d", event.ReadingTime)
	}
}

func TestTrackReadingTimeUpdatesMostRecentEvent(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "read", Title: "Read", Published: true})

	svc := NewAnalyticsService(gdb, nil)
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	if _, err := svc.TrackView(post.ID, "v1", "", "", base); err != nil {
		t.Fatalf("track view failed: %v", err)
	}
	if err := svc.TrackReadingTime(post.ID, "v1", base.Add(42*time.Second)); err != nil {
		t.Fatalf("reading time failed: %v", err)
	}

	var event db.ViewEvent
	if err := gdb.Where("post_id = ?", post.ID).Order("id desc").First(&event).Error; err != nil {
		t.Fatalf("event load failed: %v", err)
	}
	if event.ReadingTime != 42 {
		t.Fatalf("expected reading time 42, got %d", event.ReadingTime)
	}

	stats := svc.PostAnalytics(post.ID)
	if stats.ReadingTime != 42 {
		t.Fatalf("aggregate reading time not updated: %d", stats.ReadingTime)
	}
}

func TestTrackReadingTimeWithoutViewIsNoOp(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "orphan", Title: "Orphan", Published: true})

	svc := NewAnalyticsService(gdb, nil)

	if err := svc.TrackReadingTime(post.ID, "v1", time.Now()); err != nil {
		t.Fatalf("orphan reading time errored: %v", err)
	}

	var events int64
	if err := gdb.Model(&db.ViewEvent{}).Count(&events).Error; err != nil {
		t.Fatalf("event count failed: %v", err)
	}
	if events != 0 {
		t.Fatalf("no-op created %d events", events)
	}
}

func TestTrackShareValidatesPlatform(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "shared", Title: "Shared", Published: true})

	svc := NewAnalyticsService(gdb, nil)

	if err := svc.TrackShare(post.ID, "myspace"); err != ErrInvalidPlatform {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}

	if err := svc.TrackShare(post.ID, "twitter"); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	stats := svc.PostAnalytics(post.ID)
	if stats.Shares != 1 {
		t.Fatalf("expected 1 share, got %d", stats.Shares)
	}
}

func TestToggleLikeNeverGoesNegative(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	post := seedPost(t, gdb, db.Post{Slug: "liked", Title: "Liked", Published: true})

	svc := NewAnalyticsService(gdb, nil)

	likes, err := svc.ToggleLike(post.ID, true)
	if err != nil || likes != 1 {
		t.Fatalf("like failed: likes=%d err=%v", likes, err)
	}

	likes, err = svc.ToggleLike(post.ID, false)
	if err != nil || likes != 0 {
		t.Fatalf("unlike failed: likes=%d err=%v", likes, err)
	}

	likes, err = svc.ToggleLike(post.ID, false)
	if err != nil || likes != 0 {
		t.Fatalf("repeated unlike went negative: likes=%d err=%v", likes, err)
	}
}

func TestPostAnalyticsZeroDefault(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewAnalyticsService(gdb, nil)

	stats := svc.PostAnalytics(4242)
	if stats.Views != 0 || stats.Shares != 0 || stats.Likes != 0 || stats.ReadingTime != 0 {
		t.Fatalf("missing aggregate should be zeroed, got %+v", stats)
	}
	if stats.PostID != 4242 {
		t.Fatalf("zero value should carry the post id, got %d", stats.PostID)
	}
}
