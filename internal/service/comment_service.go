package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/inkfolio/internal/db"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCommentFields    = errors.New("name, email and comment are required")
	ErrCommentsDisabled = errors.New("comments are disabled for this post")
)

// CommentService wraps comment submission and moderation. Submissions always
// start unapproved; only moderation can make them publicly visible.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// Submit stores a visitor comment in pending state. All three fields are
// required; posts with comments disabled reject the submission.
func (s *CommentService) Submit(postID uint, name, email, body string) (*db.Comment, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	body = strings.TrimSpace(body)
	if name == "" || email == "" || body == "" {
		return nil, ErrCommentFields
	}

	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if !post.CommentsEnabled {
		return nil, ErrCommentsDisabled
	}

	comment := db.Comment{
		PostID:   postID,
		Name:     name,
		Email:    email,
		Body:     body,
		Approved: false,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListApproved returns the public comments of a post in chronological
// discussion order, oldest first.
func (s *CommentService) ListApproved(postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	err := s.db.Where("post_id = ? AND approved = ?", postID, true).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// ListPending returns unapproved comments for moderation, newest first.
func (s *CommentService) ListPending() ([]db.Comment, error) {
	var comments []db.Comment
	err := s.db.Where("approved = ?", false).
		Order("created_at desc, id desc").
		Find(&comments).Error
	return comments, err
}

// ListAll returns every comment for the moderation view, newest first.
func (s *CommentService) ListAll() ([]db.Comment, error) {
	var comments []db.Comment
	err := s.db.Order("created_at desc, id desc").Find(&comments).Error
	return comments, err
}

// Approve marks a comment as publicly visible.
func (s *CommentService) Approve(id uint) error {
	return s.setApproved(id, true)
}

// ToggleApproval flips the approval flag.
func (s *CommentService) ToggleApproval(id uint) error {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return s.setApproved(id, !comment.Approved)
}

// Reject hard-deletes a comment. Terminal for approved and pending alike.
func (s *CommentService) Reject(id uint) error {
	result := s.db.Unscoped().Delete(&db.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// BulkApprove approves every pending comment in one batch. Zero pending
// comments is a no-op, not an error.
func (s *CommentService) BulkApprove() (int64, error) {
	result := s.db.Model(&db.Comment{}).
		Where("approved = ?", false).
		Update("approved", true)
	return result.RowsAffected, result.Error
}

func (s *CommentService) setApproved(id uint, approved bool) error {
	result := s.db.Model(&db.Comment{}).Where("id = ?", id).Update("approved", approved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
