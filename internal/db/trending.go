package db

import "time"

// TrendingSlug 保存管理员手工排序的热门文章，插入顺序即展示顺序。
type TrendingSlug struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"size:191"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (TrendingSlug) TableName() string {
	return "trending_slugs"
}
