// Package localstore is the on-device record store for "my recent posts"
// bookkeeping and persisted session credentials. Failures here are
// non-blocking for callers: the app keeps working without local storage.
package localstore

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/shadowspace/internal/client"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

// LocalPost is one of the user's own posts, recorded after successful
// server creation.
type LocalPost struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	PostID     string    `gorm:"index;not null" json:"postId"`
	Content    string    `gorm:"not null" json:"content"`
	FakeRegion string    `json:"fakeRegion"`
	CreatedAt  time.Time `json:"createdAt"`
	Synced     bool      `gorm:"not null;default:true" json:"synced"`
}

// Setting is a simple key/value record for preferences and credentials.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"type:text"`
}

const credentialsKey = "credentials"

// Store is a sqlite-backed local database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the local store at path. ":memory:"
// works for tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&LocalPost{}, &Setting{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// SavePost records one of the user's own posts after the server confirmed
// it.
func (s *Store) SavePost(post models.Post) error {
	return s.db.Create(&LocalPost{
		PostID:     post.ID,
		Content:    post.Content,
		FakeRegion: post.FakeRegion,
		CreatedAt:  post.CreatedAt,
		Synced:     true,
	}).Error
}

// RecentPosts returns the user's locally recorded posts, newest first.
func (s *Store) RecentPosts() ([]LocalPost, error) {
	var posts []LocalPost
	err := s.db.Order("created_at desc").Find(&posts).Error
	return posts, err
}

// Count returns the number of locally recorded posts.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&LocalPost{}).Count(&n).Error
	return n, err
}

// Clear wipes all local data: posts and settings.
func (s *Store) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&LocalPost{}).Error; err != nil {
		return err
	}
	return s.db.Where("1 = 1").Delete(&Setting{}).Error
}

func (s *Store) setSetting(key, value string) error {
	return s.db.Save(&Setting{Key: key, Value: value}).Error
}

func (s *Store) getSetting(key string) (string, bool, error) {
	var setting Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// --- client.CredentialStore ---

func (s *Store) LoadCredentials() (*client.Credentials, error) {
	raw, ok, err := s.getSetting(credentialsKey)
	if err != nil || !ok {
		return nil, err
	}
	var creds client.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *Store) SaveCredentials(creds *client.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.setSetting(credentialsKey, string(raw))
}

func (s *Store) ClearCredentials() error {
	return s.db.Delete(&Setting{}, "key = ?", credentialsKey).Error
}
