package client

import (
	"context"
	"errors"

	"github.com/sujalbistaa/shadowspace/internal/models"
)

// ErrVoteInFlight is returned while a vote request for the same post has
// not settled yet. Callers reject the attempt; nothing is queued.
var ErrVoteInFlight = errors.New("vote request already in flight for this post")

// ErrPostNotInView is returned when voting on a post the view does not hold.
var ErrPostNotInView = errors.New("post not in view")

// OpState is the lifecycle of one pending vote operation.
type OpState int

const (
	OpIdle OpState = iota
	OpPending
	OpCommitted
	OpRolledBack
)

// snapshot captures the exact pre-optimistic state needed for rollback:
// the vote marker and both counters.
type snapshot struct {
	marker    models.VoteType
	hasMarker bool
	upvotes   int
	downvotes int
}

type pendingVote struct {
	state OpState
	snap  snapshot
}

// Vote applies the vote optimistically, then confirms it with the server.
// On rejection the view rolls back to the exact pre-optimistic snapshot.
// While the request is in flight, further votes on the same post return
// ErrVoteInFlight.
func (v *FeedView) Vote(ctx context.Context, postID string, voteType models.VoteType) error {
	v.mu.Lock()
	p := v.find(postID)
	if p == nil {
		v.mu.Unlock()
		return ErrPostNotInView
	}
	if op, ok := v.ops[postID]; ok && op.state == OpPending {
		v.mu.Unlock()
		return ErrVoteInFlight
	}

	cur, has := v.votes[postID]
	op := &pendingVote{
		state: OpPending,
		snap:  snapshot{marker: cur, hasMarker: has, upvotes: p.Upvotes, downvotes: p.Downvotes},
	}
	v.ops[postID] = op

	// Optimistic mutation mirrors the ledger's toggle/switch semantics.
	switch {
	case has && cur == voteType:
		delete(v.votes, postID)
		if voteType == models.VoteUp {
			p.Upvotes--
		} else {
			p.Downvotes--
		}
	default:
		if has {
			if cur == models.VoteUp {
				p.Upvotes--
			} else {
				p.Downvotes--
			}
		}
		v.votes[postID] = voteType
		if voteType == models.VoteUp {
			p.Upvotes++
		} else {
			p.Downvotes++
		}
	}
	v.mu.Unlock()

	err := v.api.Vote(ctx, postID, voteType)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		if p := v.find(postID); p != nil {
			p.Upvotes = op.snap.upvotes
			p.Downvotes = op.snap.downvotes
		}
		if op.snap.hasMarker {
			v.votes[postID] = op.snap.marker
		} else {
			delete(v.votes, postID)
		}
		op.state = OpRolledBack
		return err
	}
	op.state = OpCommitted
	return nil
}

// VoteMarker returns the user's current local vote on the post, if any.
func (v *FeedView) VoteMarker(postID string) (models.VoteType, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t, ok := v.votes[postID]
	return t, ok
}

// VoteState returns the state of the last vote operation for the post.
func (v *FeedView) VoteState(postID string) OpState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if op, ok := v.ops[postID]; ok {
		return op.state
	}
	return OpIdle
}
