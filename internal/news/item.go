package news

import (
	"fmt"
	"time"
)

type RefKind string

const (
	KindNumericCode RefKind = "numeric-code"
	KindNamePattern RefKind = "name-pattern"
	KindShortName   RefKind = "short-name"
	KindLinked      RefKind = "linked"
)

type StockReference struct {
	Kind      RefKind `json:"kind"`
	Value     string  `json:"value"`
	StockCode string  `json:"stock_code,omitempty"`
	SourceURL string  `json:"source_url,omitempty"`
}

// LinkCandidate is a structural link to a stock detail page.
type LinkCandidate struct {
	Name string
	Href string
	Code string
}

type Item struct {
	PublishedAt    time.Time        `json:"publish_time"`
	Title          string           `json:"title"`
	ContentPreview string           `json:"content_preview"`
	SourceTag      string           `json:"source"`
	URL            string           `json:"url,omitempty"`
	Author         string           `json:"author"`
	References     []StockReference `json:"stock_references"`
	IsPinned       bool             `json:"is_pinned"`
}

// ExtractionError marks a single item that could not be turned into an Item.
type ExtractionError struct {
	Title string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("news extraction failed for %q: %v", e.Title, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
