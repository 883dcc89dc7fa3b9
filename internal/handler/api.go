package handler

import (
	"gorm.io/gorm"

	"github.com/inkfolio/internal/cache"
	"github.com/inkfolio/internal/config"
	"github.com/inkfolio/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	posts     *service.PostService
	markdown  *service.MarkdownService
	analytics *service.AnalyticsService
	comments  *service.CommentService
	trending  *service.TrendingService
	contacts  *service.ContactService
	users     *service.UserService
	uploadDir string
	uploadURL string
	idle      config.AdminConfig
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, c *cache.Cache, cfg *config.Config) *API {
	analytics := service.NewAnalyticsService(gdb, c)

	return &API{
		db:        gdb,
		posts:     service.NewPostService(gdb, analytics),
		markdown:  service.NewMarkdownService(),
		analytics: analytics,
		comments:  service.NewCommentService(gdb),
		trending:  service.NewTrendingService(gdb),
		contacts:  service.NewContactService(gdb),
		users:     service.NewUserService(gdb),
		uploadDir: cfg.Upload.Dir,
		uploadURL: cfg.Upload.URLPath,
		idle:      cfg.Admin,
	}
}

// DB exposes the underlying gorm instance for setup paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Users exposes the user service for bootstrap at startup.
func (a *API) Users() *service.UserService {
	return a.users
}
