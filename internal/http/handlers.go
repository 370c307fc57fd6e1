package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/shadowspace/internal/apperr"
	"github.com/sujalbistaa/shadowspace/internal/feed"
	"github.com/sujalbistaa/shadowspace/internal/identity"
	"github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/models"
	"github.com/sujalbistaa/shadowspace/internal/post"
	"github.com/sujalbistaa/shadowspace/internal/stream"
	"github.com/sujalbistaa/shadowspace/internal/vote"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// --- Request bodies ---

type credentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createPostInput struct {
	Content string `json:"content"`
}

type voteInput struct {
	PostID   string `json:"postId"`
	VoteType string `json:"voteType"`
}

type impressionInput struct {
	PostID string `json:"postId"`
}

// Env bundles handler dependencies.
type Env struct {
	Identity *identity.Service
	Posts    *post.Service
	Ledger   *vote.Ledger
	Broker   *stream.Broker
	// Feed serves bulk reads; it is the cache when redis is configured,
	// otherwise the post service directly.
	Feed feed.RecentFetcher
	// Cache is nil when redis is not configured.
	Cache *feed.Cache
}

func (e *Env) invalidateFeed(ctx context.Context) {
	if e.Cache != nil {
		e.Cache.Invalidate(ctx)
	}
}

func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger := log.WithComponent("http")
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Signup registers a new user and returns a session token.
func (e *Env) Signup(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	session, err := e.Identity.Signup(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Login verifies credentials and returns a session token.
func (e *Env) Login(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	session, err := e.Identity.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CreatePost stores a new post and announces it on the feed stream.
func (e *Env) CreatePost(c *gin.Context) {
	var input createPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	p, err := e.Posts.Create(c.Request.Context(), currentUserID(c), input.Content)
	if err != nil {
		fail(c, err)
		return
	}

	e.invalidateFeed(c.Request.Context())
	e.Broker.Publish(stream.Event{Type: stream.EventPostCreated, Post: *p})

	c.JSON(http.StatusCreated, gin.H{"post": p})
}

// Vote applies an upvote/downvote through the ledger and announces the
// updated counters.
func (e *Env) Vote(c *gin.Context) {
	var input voteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	outcome, p, err := e.Ledger.Apply(c.Request.Context(), currentUserID(c), input.PostID, models.VoteType(input.VoteType))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConsistency {
			logger := log.WithComponent("http")
			logger.Error().Err(err).
				Str("postId", input.PostID).
				Msg("vote ledger / counter desync")
		}
		fail(c, err)
		return
	}

	e.invalidateFeed(c.Request.Context())
	e.Broker.Publish(stream.Event{Type: stream.EventPostUpdated, Post: *p})

	logger := log.WithComponent("http")
	logger.Debug().
		Str("postId", p.ID).
		Stringer("outcome", outcome).
		Msg("vote applied")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Impression bumps a post's impression counter. Best-effort from the
// client's point of view; there is nothing for it to retry or roll back.
func (e *Env) Impression(c *gin.Context) {
	var input impressionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	p, err := e.Posts.RecordImpression(c.Request.Context(), input.PostID)
	if err != nil {
		fail(c, err)
		return
	}

	e.invalidateFeed(c.Request.Context())
	e.Broker.Publish(stream.Event{Type: stream.EventPostUpdated, Post: *p})

	c.Status(http.StatusNoContent)
}

// GetPosts serves the initial feed population: most recent posts, newest
// first, or score-ordered with ?sort=top.
func (e *Env) GetPosts(c *gin.Context) {
	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxFeedLimit)
	}

	var (
		posts []models.Post
		err   error
	)
	if c.Query("sort") == "top" {
		posts, err = e.Posts.Top(c.Request.Context(), limit)
	} else {
		posts, err = e.Feed.Recent(c.Request.Context(), limit)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// HidePost soft-hides a post. Admin only.
func (e *Env) HidePost(c *gin.Context) {
	postID := c.Param("id")
	if err := e.Posts.Hide(c.Request.Context(), postID); err != nil {
		fail(c, err)
		return
	}

	e.invalidateFeed(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "post hidden"})
}
