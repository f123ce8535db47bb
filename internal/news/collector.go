package news

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// PageSource returns the raw HTML of the news page.
type PageSource interface {
	FetchHome(ctx context.Context) ([]byte, error)
}

// Collector gathers candidates from the page and optional feeds and keeps
// only unpinned items that reference at least one stock.
type Collector struct {
	Page      PageSource
	Parser    *PageParser
	Feeds     *FeedSource
	Extractor *Extractor
	Limit     int
	Logger    *zap.Logger
}

type CollectStats struct {
	Candidates   int `json:"candidates"`
	Duplicates   int `json:"duplicates"`
	Pinned       int `json:"pinned"`
	NoReferences int `json:"no_references"`
	Failed       int `json:"failed"`
	Kept         int `json:"kept"`
}

// Collect returns items sorted by publish time, newest first. It fails only
// when every configured source fails.
func (c *Collector) Collect(ctx context.Context) ([]Item, CollectStats, error) {
	log := c.logger()
	var (
		candidates []Candidate
		sourceErrs []error
		sources    int
	)

	if c.Page != nil && c.Parser != nil {
		sources++
		body, err := c.Page.FetchHome(ctx)
		if err == nil {
			var parsed []Candidate
			parsed, err = c.Parser.Parse(bytes.NewReader(body))
			candidates = append(candidates, parsed...)
		}
		if err != nil {
			log.Warn("news page unavailable", zap.Error(err))
			sourceErrs = append(sourceErrs, fmt.Errorf("news page: %w", err))
		}
	}
	if c.Feeds != nil && len(c.Feeds.URLs) > 0 {
		sources++
		feedItems, err := c.Feeds.Candidates(ctx)
		candidates = append(candidates, feedItems...)
		if err != nil {
			log.Warn("news feeds partially unavailable", zap.Error(err))
			if len(feedItems) == 0 {
				sourceErrs = append(sourceErrs, err)
			}
		}
	}
	if sources == 0 {
		return []Item{}, CollectStats{}, errors.New("news: no source configured")
	}
	if len(sourceErrs) == sources {
		return []Item{}, CollectStats{}, errors.Join(sourceErrs...)
	}

	items, stats := c.Build(candidates)
	log.Info("news collected",
		zap.Int("candidates", stats.Candidates),
		zap.Int("pinned", stats.Pinned),
		zap.Int("no_refs", stats.NoReferences),
		zap.Int("failed", stats.Failed),
		zap.Int("kept", stats.Kept))
	return items, stats, nil
}

// Build runs extraction over candidates: title dedup, pinned and empty
// filtering, newest-first ordering and the result limit.
func (c *Collector) Build(candidates []Candidate) ([]Item, CollectStats) {
	log := c.logger()
	stats := CollectStats{Candidates: len(candidates)}
	seen := map[string]struct{}{}
	items := make([]Item, 0, len(candidates))
	for _, cand := range candidates {
		key := strings.TrimSpace(cand.Title)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		item, err := c.buildItem(cand)
		if err != nil {
			stats.Failed++
			log.Warn("news item skipped", zap.Error(err))
			continue
		}
		if item.IsPinned {
			stats.Pinned++
			continue
		}
		if len(item.References) == 0 {
			stats.NoReferences++
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if c.Limit > 0 && len(items) > c.Limit {
		items = items[:c.Limit]
	}
	stats.Kept = len(items)
	return items, stats
}

func (c *Collector) buildItem(cand Candidate) (item Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{Title: cand.Title, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if strings.TrimSpace(cand.Title) == "" {
		return Item{}, &ExtractionError{Title: cand.Title, Err: errors.New("empty title")}
	}
	if c.Extractor == nil {
		return Item{}, &ExtractionError{Title: cand.Title, Err: errors.New("extractor is nil")}
	}
	refs, pinned := c.Extractor.ExtractItem(cand.Title, cand.Text, cand.Links)
	return Item{
		PublishedAt:    cand.Published,
		Title:          cand.Title,
		ContentPreview: cand.Preview,
		SourceTag:      cand.Source,
		URL:            cand.URL,
		Author:         cand.Author,
		References:     refs,
		IsPinned:       pinned,
	}, nil
}

func (c *Collector) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
