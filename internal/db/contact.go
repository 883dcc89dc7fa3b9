package db

import "time"

// ContactMessage 保存联系表单提交。
type ContactMessage struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Email     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

// FeedbackEntry 保存站点反馈评分。
type FeedbackEntry struct {
	ID        uint `gorm:"primaryKey"`
	Rating    int
	Comment   string
	CreatedAt time.Time
}
