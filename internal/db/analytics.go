package db

import "time"

// ViewEvent 记录一次文章访问，阅读时长在访客离开时回填。
type ViewEvent struct {
	ID          uint   `gorm:"primaryKey"`
	PostID      uint   `gorm:"index"`
	VisitorID   string `gorm:"size:64;index"`
	UserAgent   string
	Referrer    string
	ReadingTime int `gorm:"default:0"`
	CreatedAt   time.Time
}

// TableName 指定自定义表名。
func (ViewEvent) TableName() string {
	return "view_events"
}

// ShareEvent 记录一次分享动作。
type ShareEvent struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"index"`
	Platform  string `gorm:"size:32"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (ShareEvent) TableName() string {
	return "share_events"
}

// PostAnalytic 汇总文章维度的统计计数，每篇文章一行，
// 与事件写入在同一事务内维护。
type PostAnalytic struct {
	ID          uint   `gorm:"primaryKey"`
	PostID      uint   `gorm:"uniqueIndex"`
	Views       uint64 `gorm:"default:0"`
	UniqueViews uint64 `gorm:"default:0"`
	Shares      uint64 `gorm:"default:0"`
	Likes       int64  `gorm:"default:0"`
	ReadingTime uint64 `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PostAnalytic) TableName() string {
	return "post_analytics"
}
