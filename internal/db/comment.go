package db

import "time"

// Comment 记录访客留言，默认处于待审核状态。
type Comment struct {
	ID        uint `gorm:"primaryKey"`
	PostID    uint `gorm:"index"`
	Name      string
	Email     string
	Body      string
	Approved  bool `gorm:"default:false;index"`
	CreatedAt time.Time
}
