// Package client is the reconciliation layer a feed consumer embeds: it
// merges the initial bulk fetch, streamed change events and the user's own
// optimistic actions into one consistent local view.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/models"
	"github.com/sujalbistaa/shadowspace/internal/stream"
)

// API is the server surface the view reconciles against.
type API interface {
	Vote(ctx context.Context, postID string, voteType models.VoteType) error
	RecordImpression(ctx context.Context, postID string) error
}

const (
	defaultDwell        = 3 * time.Second
	visibilityThreshold = 0.5
)

// FeedView holds one client's local view of the feed for the lifetime of a
// view session. All methods are safe for concurrent use, and none of them
// block the caller on network I/O except Vote, which the caller is expected
// to run off its event loop.
type FeedView struct {
	api   API
	dwell time.Duration

	mu      sync.Mutex
	posts   []models.Post
	votes   map[string]models.VoteType
	ops     map[string]*pendingVote
	counted map[string]bool
	timers  map[string]*time.Timer

	sub  *stream.Subscription
	done chan struct{}
}

// Option configures a FeedView.
type Option func(*FeedView)

// WithDwell overrides the impression dwell threshold. Mainly for tests.
func WithDwell(d time.Duration) Option {
	return func(v *FeedView) { v.dwell = d }
}

func NewFeedView(api API, opts ...Option) *FeedView {
	v := &FeedView{
		api:     api,
		dwell:   defaultDwell,
		votes:   make(map[string]models.VoteType),
		ops:     make(map[string]*pendingVote),
		counted: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load replaces the view with the initial bulk fetch.
func (v *FeedView) Load(posts []models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = make([]models.Post, len(posts))
	copy(v.posts, posts)
}

// Posts returns a snapshot of the current view, head first.
func (v *FeedView) Posts() []models.Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Post, len(v.posts))
	copy(out, v.posts)
	return out
}

// find returns a pointer into the view's slice. Caller must hold v.mu.
func (v *FeedView) find(postID string) *models.Post {
	for i := range v.posts {
		if v.posts[i].ID == postID {
			return &v.posts[i]
		}
	}
	return nil
}

// InsertLocal optimistically inserts the client's own new post at the head
// of the view. The matching PostCreated event arriving later is deduplicated
// by id.
func (v *FeedView) InsertLocal(post models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.find(post.ID) != nil {
		return
	}
	v.posts = append([]models.Post{post}, v.posts...)
}

// Start consumes the given subscription until it is cancelled.
func (v *FeedView) Start(sub *stream.Subscription) {
	v.sub = sub
	v.done = make(chan struct{})
	go func() {
		defer close(v.done)
		for event := range sub.Events() {
			v.applyEvent(event)
		}
	}()
}

// Close tears the view session down: the subscription is cancelled so no
// further events are delivered, and pending impression timers are dropped
// without credit.
func (v *FeedView) Close() {
	if v.sub != nil {
		v.sub.Cancel()
		<-v.done
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, t := range v.timers {
		t.Stop()
		delete(v.timers, id)
	}
}

func (v *FeedView) applyEvent(event stream.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Type {
	case stream.EventPostCreated:
		if v.find(event.Post.ID) != nil {
			return // already present, e.g. our own optimistic insert
		}
		v.posts = append([]models.Post{event.Post}, v.posts...)
	case stream.EventPostUpdated:
		p := v.find(event.Post.ID)
		if p == nil {
			return // not in view yet
		}
		if event.Post.Version < p.Version {
			return // stale delivery, a newer state is already shown
		}
		*p = event.Post
	}
}

// SetVisible reports a post's visible fraction. Crossing the 50% threshold
// starts the dwell timer; dropping below it cancels the timer outright, so
// partial dwells earn no credit. At most one impression is recorded per
// post per view session.
func (v *FeedView) SetVisible(postID string, fraction float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.counted[postID] {
		return
	}
	if fraction >= visibilityThreshold {
		if _, running := v.timers[postID]; running {
			return
		}
		v.timers[postID] = time.AfterFunc(v.dwell, func() { v.fireImpression(postID) })
		return
	}
	if t, running := v.timers[postID]; running {
		t.Stop()
		delete(v.timers, postID)
	}
}

func (v *FeedView) fireImpression(postID string) {
	v.mu.Lock()
	if _, running := v.timers[postID]; !running || v.counted[postID] {
		// Cancelled between firing and acquiring the lock.
		v.mu.Unlock()
		return
	}
	delete(v.timers, postID)
	v.counted[postID] = true
	if p := v.find(postID); p != nil {
		p.Impressions++
	}
	v.mu.Unlock()

	// Fire and forget: a failed server-side increment is not surfaced,
	// not retried, and the local count stays.
	go func() {
		if err := v.api.RecordImpression(context.Background(), postID); err != nil {
			logger := log.WithComponent("client")
			logger.Debug().Err(err).Str("postId", postID).Msg("impression not recorded")
		}
	}()
}

// ImpressionCounted reports whether this view session already counted an
// impression for the post.
func (v *FeedView) ImpressionCounted(postID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counted[postID]
}
