package post

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sujalbistaa/shadowspace/internal/apperr"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

const MaxContentLength = 500

// blockedKeywords is a flat case-insensitive substring denylist. Crude and
// easily bypassed, but matching current behavior is the requirement.
var blockedKeywords = []string{"gun", "bomb", "kill", "suicide", "rape"}

var fakeRegions = []string{
	"Northern Lights", "Desert Storm", "Shadow Valley",
	"Neon City", "Silent Peak", "Mystic Shore", "Void Plains",
}

// Service owns post creation, impression counting and feed reads.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func containsBlockedKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Create validates and stores a new post, assigning a random display
// region. The author id is persisted but never serialized to other users.
func (s *Service) Create(ctx context.Context, authorID, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > MaxContentLength {
		return nil, apperr.Validation("content must be 1-%d characters", MaxContentLength)
	}
	if containsBlockedKeyword(content) {
		return nil, apperr.Validation("post contains blocked keywords")
	}

	post := models.Post{
		ID:         uuid.NewString(),
		AuthorID:   authorID,
		Content:    content,
		FakeRegion: fakeRegions[rand.Intn(len(fakeRegions))],
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, apperr.Transient("failed to create post", err)
	}
	return &post, nil
}

// RecordImpression bumps the post's impression counter. At-most-once per
// client-post pair is the client's job; the server just counts.
func (s *Service) RecordImpression(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, apperr.Validation("postId required")
	}
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hidden = ?", false).First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("post not found")
			}
			return err
		}
		post.Impressions++
		post.Version++
		return tx.Model(&post).Updates(map[string]any{
			"impressions": post.Impressions,
			"version":     post.Version,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Recent returns the most recent posts, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("hidden = ?", false).
		Order("created_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, apperr.Transient("failed to fetch posts", err)
	}
	return posts, nil
}

// Top returns posts ordered by score (upvotes - downvotes), ties broken by
// recency.
func (s *Service) Top(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("hidden = ?", false).
		Order("(upvotes - downvotes) desc, created_at desc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, apperr.Transient("failed to fetch posts", err)
	}
	return posts, nil
}

// Hide soft-hides a post so it stops appearing in any read path. Posts are
// never deleted.
func (s *Service) Hide(ctx context.Context, postID string) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Update("hidden", true)
	if res.Error != nil {
		return apperr.Transient("failed to hide post", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}
