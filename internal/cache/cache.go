// Package cache stores assembled routine contexts for a short TTL, keyed by
// user and day.
package cache

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

// Cache must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (models.RoutineContext, bool, error)
	Set(ctx context.Context, key string, value models.RoutineContext) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and reports how many went.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// MemoryBackend names the in-process cache in Stats. Its entries die with the
// process, so a CLI run never sees contexts cached by an earlier run.
const MemoryBackend = "memory"

type Entry struct {
	Key       string        `json:"key"`
	Age       time.Duration `json:"age"`
	ExpiresIn time.Duration `json:"expires_in"`
}

type Stats struct {
	Backend string        `json:"backend"`
	TTL     time.Duration `json:"ttl"`
	Entries []Entry       `json:"entries"`
}

// Key is the cache key for one user's context on one day.
func Key(userID, date string) string {
	return UserPrefix(userID) + date
}

// UserPrefix matches every key of one user. The user ID is query-escaped so
// a ':' or glob character in it can never reach another user's keys.
func UserPrefix(userID string) string {
	return AllPrefix() + url.QueryEscape(userID) + ":"
}

// AllPrefix matches every context entry.
func AllPrefix() string {
	return constants.ContextCacheKeyPrefix + ":"
}

// ParseKey splits a key produced by Key back into user and date.
func ParseKey(key string) (userID, date string, ok bool) {
	rest, found := strings.CutPrefix(key, AllPrefix())
	if !found {
		return "", "", false
	}
	escaped, date, found := strings.Cut(rest, ":")
	if !found || escaped == "" || date == "" || strings.Contains(date, ":") {
		return "", "", false
	}
	userID, err := url.QueryUnescape(escaped)
	if err != nil {
		return "", "", false
	}
	return userID, date, true
}
