package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/inkfolio/internal/db"
)

var (
	ErrContactFields  = errors.New("name, email and message are required")
	ErrFeedbackRating = errors.New("rating must be between 1 and 5")
)

// ContactService 处理联系表单与站点反馈的写入。写路径失败会原样返回，
// 由前端以表单内的状态条提示，不做自动重试。
type ContactService struct {
	db *gorm.DB
}

// NewContactService 创建 ContactService。
func NewContactService(gdb *gorm.DB) *ContactService {
	return &ContactService{db: gdb}
}

// SubmitContact 保存一条联系消息。
func (s *ContactService) SubmitContact(name, email, subject, message string) (*db.ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)
	if name == "" || email == "" || message == "" {
		return nil, ErrContactFields
	}

	entry := db.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(subject),
		Message: message,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// SubmitFeedback 保存一条站点反馈。
func (s *ContactService) SubmitFeedback(rating int, comment string) (*db.FeedbackEntry, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrFeedbackRating
	}

	entry := db.FeedbackEntry{Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListContactMessages 返回后台查看的联系消息，新的在前。
func (s *ContactService) ListContactMessages() ([]db.ContactMessage, error) {
	var messages []db.ContactMessage
	err := s.db.Order("created_at desc, id desc").Find(&messages).Error
	return messages, err
}
