package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"boardwatch/internal/models"
	"boardwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// ReplaceBoardEntries swaps a trading day's board atomically, so a rerun
// never leaves stale ranks behind.
func (s *Store) ReplaceBoardEntries(ctx context.Context, date string, entries []models.BoardEntry) error {
	if s == nil || s.db == nil {
		return nil
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return nil
	}
	rows := make([]models.BoardEntry, 0, len(entries))
	for _, e := range entries {
		e.ID = 0
		e.TradingDate = date
		rows = append(rows, e)
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("trading_date = ?", date).Delete(&models.BoardEntry{}).Error; err != nil {
			return err
		}
		return createInBatches(tx, rows, 200)
	})
}

func (s *Store) ListBoardEntries(ctx context.Context, date string) ([]models.BoardEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.BoardEntry
	if err := s.db.WithContext(ctx).
		Model(&models.BoardEntry{}).
		Where("trading_date = ?", strings.TrimSpace(date)).
		Order("rank asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LatestBoardDate returns "" when no board has been stored.
func (s *Store) LatestBoardDate(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}
	var dates []string
	if err := s.db.WithContext(ctx).
		Model(&models.BoardEntry{}).
		Order("trading_date desc").
		Limit(1).
		Pluck("trading_date", &dates).Error; err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", nil
	}
	return dates[0], nil
}

func (s *Store) InsertRawBoardSnapshot(ctx context.Context, item *models.RawBoardSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpsertNewsItems(ctx context.Context, items []models.NewsItem) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"published_at",
			"content_preview",
			"source_tag",
			"url",
			"author",
			"stock_references",
			"is_pinned",
		}),
	}).Create(&items).Error
}

func (s *Store) ListNewsItems(ctx context.Context, params repository.ListNewsParams) ([]models.NewsItem, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.NewsItem
	if err := newsQuery(s.db.WithContext(ctx), params).
		Order("published_at desc").
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 20)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountNewsItems(ctx context.Context, params repository.ListNewsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := newsQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func newsQuery(db *gorm.DB, params repository.ListNewsParams) *gorm.DB {
	query := db.Model(&models.NewsItem{})
	if src := strings.TrimSpace(params.Source); src != "" {
		query = query.Where("source_tag = ?", src)
	}
	return query
}

func (s *Store) SavePipelineRun(ctx context.Context, item *models.PipelineRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		UpdateAll: true,
	}).Create(item).Error
}

func (s *Store) ListPipelineRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PipelineRun
	if err := s.db.WithContext(ctx).
		Model(&models.PipelineRun{}).
		Order("crawl_time desc").
		Limit(normalizeLimit(limit, 20)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return db.CreateInBatches(items, batchSize).Error
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
