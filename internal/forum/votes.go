package forum

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// VoteResult is the target's counter and the caller's vote after a CastVote.
// UserVote is 0 when the vote was toggled off.
type VoteResult struct {
	Votes    int `json:"votes"`
	UserVote int `json:"userVote"`
}

func voteWeight(t models.TargetType) int {
	if t == models.TargetAnswer {
		return answerVoteWeight
	}
	return questionVoteWeight
}

// CastVote records userID's vote on target. Repeating the current vote removes
// it; voting the other way flips it. Lost races are retried from the top.
func (s *Service) CastVote(ctx context.Context, userID uint, target Target, value int) (VoteResult, error) {
	if userID == 0 {
		return VoteResult{}, newError(ErrUnauthorized, "authentication required")
	}
	if value != 1 && value != -1 {
		return VoteResult{}, newError(ErrInvalidArgument, "vote value must be 1 or -1")
	}
	if !target.Type.Valid() {
		return VoteResult{}, newError(ErrInvalidArgument, "unknown vote target %q", target.Type)
	}

	var (
		res VoteResult
		err error
	)
	for attempt := 0; attempt < maxVoteAttempts; attempt++ {
		err = s.store.Transaction(ctx, func(tx Tx) error {
			r, err := castVote(ctx, tx, userID, target, value)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		if !errors.Is(err, ErrConflict) {
			break
		}
		if ctx.Err() != nil {
			return VoteResult{}, ctx.Err()
		}
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return VoteResult{}, fmt.Errorf("vote on %s %d: %w", target.Type, target.ID, err)
		}
		return VoteResult{}, err
	}
	return res, nil
}

func castVote(ctx context.Context, tx Tx, userID uint, target Target, value int) (VoteResult, error) {
	authorID, err := tx.TargetAuthor(ctx, target)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return VoteResult{}, newError(ErrNotFound, "%s not found", target.Type)
		}
		return VoteResult{}, err
	}

	key := VoteKey{UserID: userID, Target: target}
	var delta, state int
	existing, err := tx.FindVote(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		vote := &models.Vote{UserID: userID, TargetID: target.ID, TargetType: target.Type, Value: value}
		if err := tx.InsertVote(ctx, vote); err != nil {
			return VoteResult{}, err
		}
		delta, state = value, value
	case err != nil:
		return VoteResult{}, err
	case existing.Value == value:
		if err := tx.DeleteVoteIfValue(ctx, existing.ID, existing.Value); err != nil {
			return VoteResult{}, err
		}
		delta, state = -existing.Value, 0
	default:
		if err := tx.SwapVoteValue(ctx, existing.ID, existing.Value, value); err != nil {
			return VoteResult{}, err
		}
		delta, state = value-existing.Value, value
	}

	votes, err := tx.AdjustTargetVotes(ctx, target, delta)
	if err != nil {
		return VoteResult{}, err
	}
	if authorID != userID {
		if err := tx.AdjustReputation(ctx, authorID, delta*voteWeight(target.Type)); err != nil {
			return VoteResult{}, err
		}
	}
	return VoteResult{Votes: votes, UserVote: state}, nil
}

// UserVote returns the caller's current vote on target, or 0.
func (s *Service) UserVote(ctx context.Context, userID uint, target Target) (int, error) {
	if userID == 0 {
		return 0, nil
	}
	v, err := s.store.FindVote(ctx, VoteKey{UserID: userID, Target: target})
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v.Value, nil
}

// reverseVoteReputation takes back the reputation the target's ledger earned
// its author, before the ledger rows are deleted. Self-votes never earned any.
func reverseVoteReputation(ctx context.Context, tx Tx, target Target, authorID uint) error {
	sum, err := tx.SumTargetVotes(ctx, target)
	if err != nil {
		return err
	}
	own, err := tx.FindVote(ctx, VoteKey{UserID: authorID, Target: target})
	switch {
	case err == nil:
		sum -= own.Value
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if sum == 0 {
		return nil
	}
	return tx.AdjustReputation(ctx, authorID, -sum*voteWeight(target.Type))
}
