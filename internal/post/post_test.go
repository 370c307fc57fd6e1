package post

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/shadowspace/internal/apperr"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Post{}, &models.Vote{}))
	return db
}

func TestCreateValidPost(t *testing.T) {
	svc := NewService(setupDB(t))

	p, err := svc.Create(context.Background(), "author-1", "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Content)
	assert.Equal(t, "author-1", p.AuthorID)
	assert.NotEmpty(t, p.ID)
	assert.Contains(t, fakeRegions, p.FakeRegion)
	assert.Zero(t, p.Upvotes)
	assert.Zero(t, p.Downvotes)
	assert.Zero(t, p.Impressions)
}

func TestCreateRejectsBadContent(t *testing.T) {
	svc := NewService(setupDB(t))
	ctx := context.Background()

	cases := map[string]string{
		"empty":      "",
		"whitespace": "   \n ",
		"too long":   strings.Repeat("a", MaxContentLength+1),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "author-1", content)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	// Exactly at the limit is fine.
	_, err := svc.Create(ctx, "author-1", strings.Repeat("a", MaxContentLength))
	assert.NoError(t, err)
}

func TestCreateRejectsBlockedKeywords(t *testing.T) {
	svc := NewService(setupDB(t))
	ctx := context.Background()

	for _, content := range []string{
		"where to buy a gun",
		"this deadline will KILL me",
		"my skills are improving", // substring match is deliberately crude
	} {
		_, err := svc.Create(ctx, "author-1", content)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "content: %q", content)
	}

	_, err := svc.Create(ctx, "author-1", "hello")
	assert.NoError(t, err)
}

func TestRecordImpression(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	ctx := context.Background()

	p, err := svc.Create(ctx, "author-1", "look at me")
	require.NoError(t, err)

	updated, err := svc.RecordImpression(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Impressions)
	assert.EqualValues(t, 1, updated.Version)

	updated, err = svc.RecordImpression(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Impressions)
	assert.EqualValues(t, 2, updated.Version)

	_, err = svc.RecordImpression(ctx, uuid.NewString())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRecentOrderingAndLimit(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p := models.Post{
			ID:         uuid.NewString(),
			AuthorID:   "author-1",
			Content:    "post",
			FakeRegion: "Neon City",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&p).Error)
	}

	posts, err := svc.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.True(t, posts[0].CreatedAt.After(posts[1].CreatedAt))
	assert.True(t, posts[1].CreatedAt.After(posts[2].CreatedAt))
}

func TestTopOrdersByScore(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)

	mk := func(up, down int) string {
		p := models.Post{
			ID: uuid.NewString(), AuthorID: "a", Content: "post",
			FakeRegion: "Silent Peak", Upvotes: up, Downvotes: down,
		}
		require.NoError(t, db.Create(&p).Error)
		return p.ID
	}
	low := mk(1, 5)
	high := mk(10, 1)
	mid := mk(3, 1)

	posts, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, high, posts[0].ID)
	assert.Equal(t, mid, posts[1].ID)
	assert.Equal(t, low, posts[2].ID)
}

func TestHideRemovesFromReads(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	ctx := context.Background()

	p, err := svc.Create(ctx, "author-1", "soon to vanish")
	require.NoError(t, err)

	require.NoError(t, svc.Hide(ctx, p.ID))

	posts, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = svc.RecordImpression(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Hide(ctx, uuid.NewString())))
}
