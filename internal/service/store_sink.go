package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"boardwatch/internal/board"
	"boardwatch/internal/models"
	"boardwatch/internal/news"
	"boardwatch/internal/repository"
)

// StoreSink persists pipeline results through the repository.
type StoreSink struct {
	Repo repository.Repository
}

func (s *StoreSink) SaveBoard(ctx context.Context, date string, entries []models.BoardEntry) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	return s.Repo.ReplaceBoardEntries(ctx, date, entries)
}

func (s *StoreSink) SaveNews(ctx context.Context, items []news.Item) error {
	if s == nil || s.Repo == nil || len(items) == 0 {
		return nil
	}
	rows := make([]models.NewsItem, 0, len(items))
	seen := map[string]struct{}{}
	for _, it := range items {
		row := NewsModel(it)
		if _, ok := seen[row.ContentHash]; ok {
			continue
		}
		seen[row.ContentHash] = struct{}{}
		rows = append(rows, row)
	}
	return s.Repo.UpsertNewsItems(ctx, rows)
}

func (s *StoreSink) SaveRun(ctx context.Context, run *models.PipelineRun) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	return s.Repo.SavePipelineRun(ctx, run)
}

func NewsModel(it news.Item) models.NewsItem {
	refs := it.References
	if refs == nil {
		refs = []news.StockReference{}
	}
	b, err := json.Marshal(refs)
	if err != nil {
		b = []byte("[]")
	}
	return models.NewsItem{
		ContentHash:     ContentHash(it.Title, it.URL),
		PublishedAt:     it.PublishedAt.UTC(),
		Title:           it.Title,
		ContentPreview:  it.ContentPreview,
		SourceTag:       it.SourceTag,
		URL:             it.URL,
		Author:          it.Author,
		StockReferences: datatypes.JSON(b),
		IsPinned:        it.IsPinned,
	}
}

// NewsFromModel is the inverse of NewsModel for API reads.
func NewsFromModel(m models.NewsItem) news.Item {
	var refs []news.StockReference
	if len(m.StockReferences) > 0 {
		_ = json.Unmarshal(m.StockReferences, &refs)
	}
	if refs == nil {
		refs = []news.StockReference{}
	}
	return news.Item{
		PublishedAt:    m.PublishedAt,
		Title:          m.Title,
		ContentPreview: m.ContentPreview,
		SourceTag:      m.SourceTag,
		URL:            m.URL,
		Author:         m.Author,
		References:     refs,
		IsPinned:       m.IsPinned,
	}
}

// ContentHash identifies a news item by its normalized title and URL.
func ContentHash(title, url string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(title) + "\n" + strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])
}

// SnapshotRecorder stores the raw payload of every successful board probe.
type SnapshotRecorder struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Now    func() time.Time
}

// Record matches board.Fetcher.OnPayload. Failures are logged, never returned.
func (r *SnapshotRecorder) Record(ctx context.Context, date string, variant board.Variant, payload []byte) {
	if r == nil || r.Repo == nil || len(payload) == 0 {
		return
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if !json.Valid(payload) {
		return
	}
	item := &models.RawBoardSnapshot{
		TradingDate: date,
		Category:    variant.Category,
		SortField:   variant.SortField,
		FetchedAt:   now().UTC(),
		Payload:     datatypes.JSON(append([]byte(nil), payload...)),
	}
	if err := r.Repo.InsertRawBoardSnapshot(ctx, item); err != nil && r.Logger != nil {
		r.Logger.Warn("store raw board snapshot failed",
			zap.String("date", date),
			zap.String("category", variant.Category),
			zap.Error(err))
	}
}
