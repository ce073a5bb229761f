package ratelimit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"market-scanner/errs"
)

// DailyBudget is a shared daily request ledger backed by memcache. Workers
// increment a per-day counter; once the maximum is reached, every further
// Acquire fails until the key expires at the end of the UTC day.
type DailyBudget struct {
	client *memcache.Client
	max    int
}

// NewDailyBudget connects to memcache at addr. A max of 0 disables the cap.
func NewDailyBudget(addr string, max int) *DailyBudget {
	return &DailyBudget{
		client: memcache.New(addr),
		max:    max,
	}
}

// Consume spends one request from today's budget.
func (b *DailyBudget) Consume() error {
	if b == nil || b.max <= 0 {
		return nil
	}

	key := budgetKey(time.Now().UTC())
	count, err := b.client.Increment(key, 1)
	if err == memcache.ErrCacheMiss {
		// First request of the day; TTL covers the remainder of the UTC day.
		add := &memcache.Item{
			Key:        key,
			Value:      []byte("1"),
			Expiration: int32(secondsUntilMidnight(time.Now().UTC())),
		}
		if err := b.client.Add(add); err == memcache.ErrNotStored {
			// Another worker won the race; retry the increment once.
			count, err = b.client.Increment(key, 1)
			if err != nil {
				return nil // ledger unavailable is never fatal for a scan
			}
		} else if err != nil {
			return nil
		} else {
			count = 1
		}
	} else if err != nil {
		return nil
	}

	if int(count) > b.max {
		return errs.NewRateBudget(
			fmt.Sprintf("daily request budget of %d exhausted (used %s)", b.max, strconv.FormatUint(count, 10)))
	}
	return nil
}

func budgetKey(now time.Time) string {
	return "scanner:requests:" + now.Format("2006-01-02")
}

func secondsUntilMidnight(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	s := int(midnight.Sub(now).Seconds())
	if s < 1 {
		s = 1
	}
	return s
}
