package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSource turns RSS/Atom items into candidates for the same extractor.
type FeedSource struct {
	Parser     *gofeed.Parser
	URLs       []string
	PreviewLen int
	// page is used for HTML fragments inside item descriptions.
	page *PageParser
}

func NewFeedSource(urls []string, previewLen int, loc *time.Location) *FeedSource {
	return &FeedSource{
		Parser:     gofeed.NewParser(),
		URLs:       urls,
		PreviewLen: previewLen,
		page:       NewPageParser("", previewLen, 0, loc),
	}
}

// Candidates fetches every feed; a failing feed does not hide the others.
func (f *FeedSource) Candidates(ctx context.Context) ([]Candidate, error) {
	var (
		out  []Candidate
		errs []error
	)
	for _, u := range f.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		feed, err := f.Parser.ParseURLWithContext(u, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", u, err))
			continue
		}
		out = append(out, f.FromFeed(feed)...)
	}
	return out, errors.Join(errs...)
}

func (f *FeedSource) FromFeed(feed *gofeed.Feed) []Candidate {
	if feed == nil {
		return nil
	}
	source := strings.TrimSpace(feed.Title)
	out := make([]Candidate, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		text, links := f.page.fragment(firstNonEmpty(it.Content, it.Description))
		var published time.Time
		switch {
		case it.PublishedParsed != nil:
			published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			published = *it.UpdatedParsed
		}
		author := UnknownAuthor
		if it.Author != nil && strings.TrimSpace(it.Author.Name) != "" {
			author = strings.TrimSpace(it.Author.Name)
		}
		out = append(out, Candidate{
			Title:     strings.TrimSpace(it.Title),
			URL:       it.Link,
			Text:      text,
			Preview:   Preview(text, f.PreviewLen),
			Author:    author,
			Source:    source,
			Timestamp: it.Published,
			Published: published,
			Links:     links,
		})
	}
	return out
}
