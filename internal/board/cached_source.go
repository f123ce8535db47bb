package board

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PayloadCache is the subset of a key/value store used to memoize board payloads.
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSource serves past-date payloads from a cache. Only payloads that
// decode to a non-empty board are stored, and today's date is never cached
// because the upstream may still publish it.
type CachedSource struct {
	Next   Source
	Cache  PayloadCache
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *CachedSource) FetchBoard(ctx context.Context, date string, variant Variant) ([]byte, error) {
	if s.Cache == nil || s.isToday(date) {
		return s.Next.FetchBoard(ctx, date, variant)
	}
	key := s.key(date, variant)
	if cached, found, err := s.Cache.Get(ctx, key); err == nil && found {
		return cached, nil
	} else if err != nil && s.Logger != nil {
		s.Logger.Warn("board cache get failed", zap.String("key", key), zap.Error(err))
	}

	raw, err := s.Next.FetchBoard(ctx, date, variant)
	if err != nil {
		return nil, err
	}
	if _, derr := Decode(raw); derr == nil {
		if err := s.Cache.Set(ctx, key, raw, s.TTL); err != nil && s.Logger != nil {
			s.Logger.Warn("board cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return raw, nil
}

func (s *CachedSource) key(date string, v Variant) string {
	return s.Prefix + "board:" + date + ":" + v.Category + ":" + v.SortField
}

func (s *CachedSource) isToday(date string) bool {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().Format(DateLayout) == date
}
