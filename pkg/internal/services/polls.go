package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	localCache "github.com/velvetlabs/livepoll/pkg/internal/cache"
	"github.com/velvetlabs/livepoll/pkg/internal/database"
	"github.com/velvetlabs/livepoll/pkg/internal/models"
	"github.com/velvetlabs/livepoll/pkg/internal/realtime"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrInvalidOptions = errors.New("a poll needs a question and at least one option")
)

func GetPollCacheKey(id uint) string {
	return fmt.Sprintf("poll#%d", id)
}

// NewPoll validates and persists a poll, then announces it to every
// live viewer. Blank option labels are dropped before validation so the
// comma-separated creation path cannot smuggle empty options in.
func NewPoll(poll models.Poll) (models.Poll, error) {
	poll.Question = strings.TrimSpace(poll.Question)
	poll.Options = lo.Filter([]models.PollOption(poll.Options), func(item models.PollOption, index int) bool {
		return len(strings.TrimSpace(item.Label)) > 0
	})

	if len(poll.Question) == 0 || len(poll.Options) == 0 {
		return poll, ErrInvalidOptions
	}

	if err := database.C.Create(&poll).Error; err != nil {
		return poll, err
	}

	realtime.Default().Broadcast(poll)

	return poll, nil
}

// GetPoll loads one poll through the read cache.
func GetPoll(id uint) (models.Poll, error) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	ctx := context.Background()

	if val, err := marshal.Get(ctx, GetPollCacheKey(id), new(models.Poll)); err == nil {
		return *val.(*models.Poll), nil
	}

	var poll models.Poll
	if err := database.C.Where("id = ?", id).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll, ErrPollNotFound
		}
		return poll, err
	}

	_ = marshal.Set(
		ctx,
		GetPollCacheKey(id),
		poll,
		store.WithCost(1),
		store.WithExpiration(5*time.Minute),
		store.WithTags([]string{"poll", GetPollCacheKey(id)}),
	)

	return poll, nil
}

// FlushPollCache drops the cached copy after any write so readers never
// see a stale tally for longer than one request.
func FlushPollCache(id uint) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	_ = marshal.Delete(context.Background(), GetPollCacheKey(id))
}

func ListPolls() ([]models.Poll, error) {
	var polls []models.Poll
	if err := database.C.Order("created_at DESC").Find(&polls).Error; err != nil {
		return polls, err
	}
	return polls, nil
}

func CountPolls() (int64, error) {
	var count int64
	if err := database.C.Model(&models.Poll{}).Count(&count).Error; err != nil {
		return count, err
	}
	return count, nil
}
