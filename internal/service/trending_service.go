package service

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/inkfolio/internal/db"
)

// TrendingService 维护管理员手工排序的热门文章列表。
type TrendingService struct {
	db *gorm.DB
}

// NewTrendingService 创建 TrendingService。
func NewTrendingService(gdb *gorm.DB) *TrendingService {
	return &TrendingService{db: gdb}
}

// List 按插入顺序返回热门 slug。表缺失或查询失败时返回带有明确
// 提示的错误，由管理端界面展示，提示手工建表而不是静默失败。
func (s *TrendingService) List() ([]string, error) {
	var rows []db.TrendingSlug
	if err := s.db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("trending list unavailable, check that the trending_slugs table exists: %w", err)
	}

	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.Slug)
	}
	return slugs, nil
}

// Replace 用新的有序集合整体替换热门列表。删除与插入在同一事务内执行，
// 中途失败会整体回滚，重试一次成功的 Replace 即可收敛到期望状态。
func (s *TrendingService) Replace(slugs []string) error {
	cleaned := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		trimmed := strings.TrimSpace(slug)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&db.TrendingSlug{}).Error; err != nil {
			return fmt.Errorf("trending replace failed during delete: %w", err)
		}

		for _, slug := range cleaned {
			if err := tx.Create(&db.TrendingSlug{Slug: slug}).Error; err != nil {
				return fmt.Errorf("trending replace failed during insert: %w", err)
			}
		}
		return nil
	})
}
