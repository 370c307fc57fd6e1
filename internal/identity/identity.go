package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sujalbistaa/shadowspace/internal/apperr"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// Service is the identity provider: it owns credential storage and token
// issuance/verification. The rest of the app treats it as a black box.
type Service struct {
	db     *gorm.DB
	secret []byte
}

func NewService(db *gorm.DB, secret []byte) *Service {
	return &Service{db: db, secret: secret}
}

// Session is the result of a successful signup or login.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Signup registers a new account, assigning an anonymous display name that
// never changes afterwards.
func (s *Service) Signup(ctx context.Context, username, password string) (*Session, error) {
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, apperr.Validation("username must be %d+ chars, password %d+ chars", minUsernameLen, minPasswordLen)
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Transient("failed to check username", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Transient("failed to hash password", err)
	}

	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		AnonymousName: generateAnonymousName(),
		PasswordHash:  string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Races on the unique index land here.
		return nil, apperr.Conflict("username already exists")
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, apperr.Transient("failed to issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and returns a fresh session. A valid
// credential pair whose profile metadata is missing maps to not-found,
// matching the signup flow writing credentials before profile data.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Auth("invalid username or password")
	}
	if err != nil {
		return nil, apperr.Transient("failed to fetch user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Auth("invalid username or password")
	}

	if user.AnonymousName == "" {
		return nil, apperr.NotFound("user data not found")
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, apperr.Transient("failed to issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}
