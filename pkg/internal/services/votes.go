package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/velvetlabs/livepoll/pkg/internal/database"
	"github.com/velvetlabs/livepoll/pkg/internal/models"
	"github.com/velvetlabs/livepoll/pkg/internal/realtime"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrAlreadyVoted = errors.New("you have already voted on this poll")
)

// OptionSelector addresses one option of a poll, either by position or
// by exact label. The form entry point votes by label, the live socket
// by index; both resolve through the same engine.
type OptionSelector struct {
	index   int
	label   string
	byIndex bool
}

func SelectOptionByIndex(index int) OptionSelector {
	return OptionSelector{index: index, byIndex: true}
}

func SelectOptionByLabel(label string) OptionSelector {
	return OptionSelector{label: label}
}

// resolve returns the position of the addressed option, or -1 when the
// selector matches nothing.
func (v OptionSelector) resolve(options []models.PollOption) int {
	if v.byIndex {
		if v.index < 0 || v.index >= len(options) {
			return -1
		}
		return v.index
	}

	_, index, ok := lo.FindIndexOf(options, func(item models.PollOption) bool {
		return item.Label == v.label
	})
	if !ok {
		return -1
	}
	return index
}

// Per-poll locks used in strict mode so two concurrent votes on the
// same poll cannot lose an update. The map only ever grows by one entry
// per poll; polls are never deleted in this design.
var pollVoteLocks sync.Map

// CastVote applies exactly one vote to exactly one option of one poll.
//
// With trusted set the caller vouches for the vote itself: the account
// lookup and the once-per-poll check are skipped and accountID is
// ignored. An unresolvable selector is a deliberate no-op: no state
// changes and nothing is broadcast.
func CastVote(accountID, pollID uint, selector OptionSelector, trusted bool) (models.Poll, error) {
	poll, applied, err := applyVote(accountID, pollID, selector, trusted)
	if err != nil || !applied {
		return poll, err
	}

	realtime.Default().Broadcast(poll)

	return poll, nil
}

// applyVote validates and persists one vote, reporting whether any
// state changed. The strict-mode lock covers only this part; fan-out
// happens after it is released so one slow viewer socket cannot stall
// voting on the poll.
func applyVote(accountID, pollID uint, selector OptionSelector, trusted bool) (models.Poll, bool, error) {
	if viper.GetBool("voting.strict") {
		mu, _ := pollVoteLocks.LoadOrStore(pollID, &sync.Mutex{})
		mu.(*sync.Mutex).Lock()
		defer mu.(*sync.Mutex).Unlock()
	}

	var poll models.Poll
	if err := database.C.Where("id = ?", pollID).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll, false, ErrPollNotFound
		}
		return poll, false, err
	}

	var account models.Account
	if !trusted {
		if err := database.C.Where("id = ?", accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return poll, false, ErrUserNotFound
			}
			return poll, false, err
		}

		if lo.Contains([]uint(account.VotedPolls), poll.ID) {
			return poll, false, ErrAlreadyVoted
		}
	}

	position := selector.resolve(poll.Options)
	if position < 0 {
		return poll, false, nil
	}

	poll.Options[position].Votes++

	// Poll tally and voter bookkeeping land together or not at all.
	if err := database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&poll).Error; err != nil {
			return err
		}
		if !trusted {
			account.VotedPolls = append(account.VotedPolls, poll.ID)
			account.PollsVoted = len(account.VotedPolls)
			if err := tx.Save(&account).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return poll, false, fmt.Errorf("unable to persist vote: %v", err)
	}

	FlushPollCache(poll.ID)

	if trusted {
		log.Info().Uint("poll", poll.ID).Msg("Vote received via trusted path.")
	} else {
		log.Info().Uint("poll", poll.ID).Str("account", account.Name).Msg("Vote received.")
	}

	return poll, true, nil
}
