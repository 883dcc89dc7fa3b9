package service

import (
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/inkfolio/internal/db"
	"github.com/inkfolio/internal/logging"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrSlugTaken     = errors.New("slug already in use")
	ErrSlugRequired  = errors.New("slug is required")
	ErrTitleRequired = errors.New("title is required")
)

// Sort orders accepted by Query.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitleAsc  = "title-asc"
	SortTitleDesc = "title-desc"
	SortTrending  = "trending"
)

// DefaultPageSize matches the blog index grid.
const DefaultPageSize = 9

// TagAll is the pseudo tag that disables tag filtering.
const TagAll = "All"

// StatsProvider supplies per-post view counters for trending sort.
type StatsProvider interface {
	PostStatsMap(postIDs []uint) (map[uint]*db.PostAnalytic, error)
}

// PostService wraps post related database operations. Read paths degrade to
// a static fallback list instead of returning errors.
type PostService struct {
	db       *gorm.DB
	stats    StatsProvider
	fallback []db.Post
}

// PostFilter describes filters for the public blog index.
type PostFilter struct {
	Tag     string
	Search  string
	Month   string // YYYY-MM
	Sort    string
	Page    int
	PerPage int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts      []db.Post
	Total      int
	TotalPages int
	Page       int
	PerPage    int
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Slug             string
	Title            string
	Excerpt          string
	Content          string
	Author           string
	AuthorProfession string
	Tags             []string
	ImageURL         string
	ReadTime         string
	Featured         bool
	Published        bool
	CommentsEnabled  bool
	PublishDate      time.Time
}

// NewPostService creates a PostService instance. stats may be nil, in which
// case trending sort falls back to newest-first.
func NewPostService(gdb *gorm.DB, stats StatsProvider) *PostService {
	return &PostService{
		db:       gdb,
		stats:    stats,
		fallback: fallbackPosts(),
	}
}

// ListPublished returns all published posts ordered newest-created-first.
// On backend failure it logs and returns the static fallback list, never an
// error: read availability wins over freshness.
func (s *PostService) ListPublished() []db.Post {
	var posts []db.Post
	if err := s.db.Where("published = ?", true).Order("created_at desc, id desc").Find(&posts).Error; err != nil {
		logging.L().Warn("post list failed, serving fallback", zap.Error(err))
		return s.fallbackList()
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts
}

// GetBySlug returns exactly one published post matching slug, checking the
// fallback list when the live source misses or errors.
func (s *PostService) GetBySlug(slug string) (*db.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrPostNotFound
	}

	var post db.Post
	err := s.db.Where("slug = ? AND published = ?", slug, true).First(&post).Error
	if err == nil {
		post.Normalize()
		return &post, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.L().Warn("post lookup failed, checking fallback", zap.String("slug", slug), zap.Error(err))
	}

	for _, fb := range s.fallbackList() {
		if fb.Slug == slug {
			copied := fb
			return &copied, nil
		}
	}

	return nil, ErrPostNotFound
}

// ListFeatured filters the published set to featured posts.
func (s *PostService) ListFeatured() []db.Post {
	published := s.ListPublished()
	featured := make([]db.Post, 0, len(published))
	for _, post := range published {
		if post.Featured {
			featured = append(featured, post)
		}
	}
	return featured
}

// ListRecent returns the first limit posts in published order.
func (s *PostService) ListRecent(limit int) []db.Post {
	published := s.ListPublished()
	if limit <= 0 || limit >= len(published) {
		return published
	}
	return published[:limit]
}

// Query applies the blog index filters, sort order and pagination on top of
// the published set. Page is 1-based; out-of-range pages yield empty slices,
// not errors.
func (s *PostService) Query(filter PostFilter) PostListResult {
	posts := s.ListPublished()
	posts = filterPosts(posts, filter)
	s.sortPosts(posts, filter.Sort)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	total := len(posts)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return PostListResult{
		Posts:      posts[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
	}
}

// Months returns the distinct YYYY-MM archive buckets of the published set,
// newest first.
func (s *PostService) Months() []string {
	seen := map[string]bool{}
	months := []string{}
	for _, post := range s.ListPublished() {
		month := displayDate(post).Format("2006-01")
		if !seen[month] {
			seen[month] = true
			months = append(months, month)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// ListAll returns every post for the admin editor, drafts included.
func (s *PostService) ListAll() ([]db.Post, error) {
	var posts []db.Post
	if err := s.db.Order("created_at desc, id desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

// Get fetches a post by id for the admin editor.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.Normalize()
	return &post, nil
}

// Create persists a post. Slug uniqueness is enforced here rather than left
// to the database error text.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	post, err := postFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Post{}).Where("slug = ?", post.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}
		return tx.Create(post).Error
	}); err != nil {
		return nil, err
	}

	post.Normalize()
	return post, nil
}

// Update applies updates to an existing post.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	incoming, err := postFromInput(input)
	if err != nil {
		return nil, err
	}

	var existing db.Post
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&db.Post{}).Where("slug = ? AND id <> ?", incoming.Slug, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}

		existing.Slug = incoming.Slug
		existing.Title = incoming.Title
		existing.Excerpt = incoming.Excerpt
		existing.Content = incoming.Content
		existing.Author = incoming.Author
		existing.AuthorProfession = incoming.AuthorProfession
		existing.Tags = incoming.Tags
		existing.ImageURL = incoming.ImageURL
		existing.ReadTime = incoming.ReadTime
		existing.Featured = incoming.Featured
		existing.Published = incoming.Published
		existing.CommentsEnabled = incoming.CommentsEnabled
		existing.PublishDate = incoming.PublishDate

		return tx.Save(&existing).Error
	}); err != nil {
		return nil, err
	}

	existing.Normalize()
	return &existing, nil
}

// SetPublished flips the publication flag.
func (s *PostService) SetPublished(id uint, published bool) error {
	result := s.db.Model(&db.Post{}).Where("id = ?", id).Update("published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Delete hard-deletes a post row.
func (s *PostService) Delete(id uint) error {
	result := s.db.Unscoped().Delete(&db.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostService) fallbackList() []db.Post {
	copied := make([]db.Post, len(s.fallback))
	copy(copied, s.fallback)
	return copied
}

func postFromInput(input PostInput) (*db.Post, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	post := &db.Post{
		Slug:             slug,
		Title:            strings.TrimSpace(input.Title),
		Excerpt:          strings.TrimSpace(input.Excerpt),
		Content:          input.Content,
		Author:           strings.TrimSpace(input.Author),
		AuthorProfession: strings.TrimSpace(input.AuthorProfession),
		ImageURL:         strings.TrimSpace(input.ImageURL),
		ReadTime:         strings.TrimSpace(input.ReadTime),
		Featured:         input.Featured,
		Published:        input.Published,
		CommentsEnabled:  input.CommentsEnabled,
		PublishDate:      input.PublishDate,
	}
	post.SetTagList(input.Tags)
	return post, nil
}

func filterPosts(posts []db.Post, filter PostFilter) []db.Post {
	tag := strings.TrimSpace(filter.Tag)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	month := strings.TrimSpace(filter.Month)

	filtered := make([]db.Post, 0, len(posts))
	for _, post := range posts {
		if tag != "" && tag != TagAll && !post.HasTag(tag) {
			continue
		}
		if search != "" && !matchesSearch(post, search) {
			continue
		}
		if month != "" && displayDate(post).Format("2006-01") != month {
			continue
		}
		filtered = append(filtered, post)
	}
	return filtered
}

func matchesSearch(post db.Post, lowered string) bool {
	if strings.Contains(strings.ToLower(post.Title), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(post.Excerpt), lowered) {
		return true
	}
	for _, tag := range post.TagList() {
		if strings.Contains(strings.ToLower(tag), lowered) {
			return true
		}
	}
	return false
}

// displayDate 优先使用发布日期，缺失时退回创建时间。
func displayDate(post db.Post) time.Time {
	if !post.PublishDate.IsZero() {
		return post.PublishDate
	}
	return post.CreatedAt
}

func (s *PostService) sortPosts(posts []db.Post, order string) {
	switch order {
	case SortTitleAsc, SortTitleDesc:
		col := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
		sort.SliceStable(posts, func(i, j int) bool {
			cmp := col.CompareString(posts[i].Title, posts[j].Title)
			if order == SortTitleDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	case SortOldest:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		})
	case SortTrending:
		views := s.viewCounts(posts)
		sort.SliceStable(posts, func(i, j int) bool {
			vi, vj := views[posts[i].ID], views[posts[j].ID]
			if vi != vj {
				return vi > vj
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default: // SortNewest
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

func (s *PostService) viewCounts(posts []db.Post) map[uint]uint64 {
	views := make(map[uint]uint64, len(posts))
	if s.stats == nil {
		return views
	}

	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	statsMap, err := s.stats.PostStatsMap(ids)
	if err != nil {
		logging.L().Warn("trending sort stats unavailable", zap.Error(err))
		return views
	}
	for id, stat := range statsMap {
		if stat != nil {
			views[id] = stat.Views
		}
	}
	return views
}
