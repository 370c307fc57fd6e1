package vote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/shadowspace/internal/apperr"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

// OutcomeKind says what a vote call did to the ledger.
type OutcomeKind int

const (
	// Added is a first vote by this user on this post.
	Added OutcomeKind = iota
	// Removed is a toggle-off: the same type was voted again.
	Removed
	// Switched is an in-place change from one type to the other.
	Switched
)

// Outcome describes the ledger mutation. From is only set for Switched.
type Outcome struct {
	Kind OutcomeKind
	From models.VoteType
	To   models.VoteType
}

func (o Outcome) String() string {
	switch o.Kind {
	case Added:
		return fmt.Sprintf("added(%s)", o.To)
	case Removed:
		return fmt.Sprintf("removed(%s)", o.To)
	default:
		return fmt.Sprintf("switched(%s->%s)", o.From, o.To)
	}
}

// Ledger is the authoritative record of each user's current vote per post.
// Every Apply also adjusts the post's denormalized counters in the same
// transaction, so the two can never diverge.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Apply records a vote by userID on postID and returns the outcome plus the
// post as committed. Semantics: no existing vote inserts, same type
// toggles off, different type switches in place. The post row is locked for
// the duration, so concurrent votes on the same post serialize while other
// posts proceed in parallel.
func (l *Ledger) Apply(ctx context.Context, userID, postID string, voteType models.VoteType) (Outcome, *models.Post, error) {
	if postID == "" {
		return Outcome{}, nil, apperr.Validation("postId required")
	}
	if !voteType.Valid() {
		return Outcome{}, nil, apperr.Validation("voteType must be %q or %q", models.VoteUp, models.VoteDown)
	}

	var (
		outcome Outcome
		post    models.Post
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite has no FOR UPDATE and serializes writers itself.
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("hidden = ?", false).First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("post not found")
			}
			return err
		}

		var existing models.Vote
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			v := models.Vote{ID: uuid.NewString(), PostID: postID, UserID: userID, VoteType: voteType}
			if err := tx.Create(&v).Error; err != nil {
				return err
			}
			outcome = Outcome{Kind: Added, To: voteType}
		case err != nil:
			return err
		case existing.VoteType == voteType:
			if err := tx.Delete(&models.Vote{}, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			outcome = Outcome{Kind: Removed, To: voteType}
		default:
			if err := tx.Model(&models.Vote{}).Where("id = ?", existing.ID).
				Update("vote_type", voteType).Error; err != nil {
				return err
			}
			outcome = Outcome{Kind: Switched, From: existing.VoteType, To: voteType}
		}

		return applyDelta(tx, &post, outcome)
	})
	if err != nil {
		return Outcome{}, nil, err
	}
	return outcome, &post, nil
}

// applyDelta adjusts the post's counters for the given outcome and bumps
// the version, all within the caller's transaction. A switch applies both
// deltas in one update rather than two sequential calls.
func applyDelta(tx *gorm.DB, post *models.Post, outcome Outcome) error {
	up, down := post.Upvotes, post.Downvotes

	switch outcome.Kind {
	case Added:
		if outcome.To == models.VoteUp {
			up++
		} else {
			down++
		}
	case Removed:
		if outcome.To == models.VoteUp {
			up--
		} else {
			down--
		}
	case Switched:
		if outcome.To == models.VoteUp {
			up++
			down--
		} else {
			up--
			down++
		}
	}

	if up < 0 || down < 0 {
		// The ledger said a vote existed that the counter never saw.
		return apperr.Consistency(
			fmt.Sprintf("counter would go negative on post %s (%s, up=%d, down=%d)",
				post.ID, outcome, up, down), nil)
	}

	post.Upvotes = up
	post.Downvotes = down
	post.Version++
	return tx.Model(post).Updates(map[string]any{
		"upvotes":   up,
		"downvotes": down,
		"version":   post.Version,
	}).Error
}
