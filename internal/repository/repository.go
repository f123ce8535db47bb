package repository

import (
	"context"

	"gorm.io/gorm"

	"boardwatch/internal/models"
)

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// board
	ReplaceBoardEntries(ctx context.Context, date string, entries []models.BoardEntry) error
	ListBoardEntries(ctx context.Context, date string) ([]models.BoardEntry, error)
	LatestBoardDate(ctx context.Context) (string, error)
	InsertRawBoardSnapshot(ctx context.Context, item *models.RawBoardSnapshot) error

	// news
	UpsertNewsItems(ctx context.Context, items []models.NewsItem) error
	ListNewsItems(ctx context.Context, params ListNewsParams) ([]models.NewsItem, error)
	CountNewsItems(ctx context.Context, params ListNewsParams) (int64, error)

	// runs
	SavePipelineRun(ctx context.Context, item *models.PipelineRun) error
	ListPipelineRuns(ctx context.Context, limit int) ([]models.PipelineRun, error)
}

type ListNewsParams struct {
	Limit  int
	Offset int
	Source string
}
