package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"boardwatch/internal/board"
	"boardwatch/internal/export"
	"boardwatch/internal/logger"
	"boardwatch/internal/models"
	"boardwatch/internal/news"
)

type BoardScanner interface {
	Scan(ctx context.Context, opts board.ScanOptions) (board.ScanResult, error)
}

type NewsCollector interface {
	Collect(ctx context.Context) ([]news.Item, news.CollectStats, error)
}

type ArtifactWriter interface {
	WriteBoard(a export.BoardArtifact) (string, error)
	WriteHistory(a export.HistoryArtifact) (string, error)
	WriteNews(items []news.Item) (string, error)
}

// Sink receives normalized results. SaveBoard replaces the stored board for date.
type Sink interface {
	SaveBoard(ctx context.Context, date string, entries []models.BoardEntry) error
	SaveNews(ctx context.Context, items []news.Item) error
	SaveRun(ctx context.Context, run *models.PipelineRun) error
}

type Pipeline struct {
	Board           BoardScanner
	News            NewsCollector
	Writer          ArtifactWriter
	Sink            Sink
	TopN            int
	MaxLookbackDays int
	Location        *time.Location
	Logger          *zap.Logger

	Now   func() time.Time
	NewID func() string
}

type Options struct {
	// Days is clamped to 1..30.
	Days int
	// Today overrides the scan start date.
	Today time.Time
}

// Run executes FETCH_BOARD → DECODE → NORMALIZE → EXTRACT_NEWS → EXPORT.
// Only a board fetch failure fails the run. An exhausted lookback window still
// writes empty artifacts; any other fetch error leaves existing files untouched.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Run, error) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	now := p.now().In(loc)
	today := opts.Today
	if today.IsZero() {
		today = now
	}
	today = today.In(loc)

	run := &Run{
		RunID:         p.newID(),
		CrawlTime:     now,
		TargetDate:    today.Format(board.DateLayout),
		DaysRequested: board.ClampDays(opts.Days),
		EntryCounts:   map[string]int{},
		Boards:        map[string][]models.BoardEntry{},
		Attempts:      []board.Attempt{},
		Artifacts:     []string{},
	}
	log := logger.ForRun(p.logger(), run.RunID)
	log.Info("pipeline start",
		zap.String("target_date", run.TargetDate),
		zap.Int("days", run.DaysRequested))

	if p.Board == nil {
		return p.fail(ctx, log, run, StageFetchBoard, errors.New("board scanner is nil"), 0)
	}

	// FETCH_BOARD
	start := time.Now()
	res, err := p.Board.Scan(ctx, board.ScanOptions{
		Today:           today,
		Days:            run.DaysRequested,
		MaxLookbackDays: p.MaxLookbackDays,
	})
	run.Attempts = append(run.Attempts, res.Attempts...)
	if err != nil {
		return p.fail(ctx, log, run, StageFetchBoard, err, time.Since(start))
	}
	run.Stages = append(run.Stages, StageResult{
		Stage:   StageFetchBoard,
		Status:  StageOK,
		Stats:   map[string]any{"dates_probed": res.DatesProbed, "attempts": len(res.Attempts), "days": len(res.Days)},
		Elapsed: time.Since(start),
	})

	// DECODE
	start = time.Now()
	var decoded []models.BoardEntry
	rows := map[string]int{}
	for _, day := range res.Days {
		rows[day.Date] = len(day.Entries)
		decoded = append(decoded, day.Entries...)
	}
	run.Stages = append(run.Stages, StageResult{
		Stage:   StageDecode,
		Status:  StageOK,
		Stats:   map[string]any{"rows": len(decoded), "rows_by_date": rows},
		Elapsed: time.Since(start),
	})

	// NORMALIZE
	start = time.Now()
	normalized := board.Normalize(decoded, p.TopN)
	for _, e := range normalized {
		run.Boards[e.TradingDate] = append(run.Boards[e.TradingDate], e)
	}
	for date, entries := range run.Boards {
		run.EntryCounts[date] = len(entries)
	}
	run.DaysFetched = len(run.Boards)
	run.Stages = append(run.Stages, StageResult{
		Stage:   StageNormalize,
		Status:  StageOK,
		Stats:   map[string]any{"entries": len(normalized), "top_n": p.TopN},
		Elapsed: time.Since(start),
	})
	p.logBoards(log, run)

	// EXTRACT_NEWS
	start = time.Now()
	run.News = []news.Item{}
	newsStage := StageResult{Stage: StageExtractNews, Status: StageSkipped}
	if p.News != nil {
		items, stats, err := p.News.Collect(ctx)
		newsStage.Stats = statsMap(stats)
		if err != nil {
			newsStage.Status = StageFailed
			newsStage.Err = err.Error()
			log.Warn("news extraction failed, continuing with empty news", zap.Error(err))
		} else {
			newsStage.Status = StageOK
			if items != nil {
				run.News = items
			}
		}
	}
	newsStage.Elapsed = time.Since(start)
	run.Stages = append(run.Stages, newsStage)

	// EXPORT
	start = time.Now()
	exportStage := StageResult{Stage: StageExport, Status: StageOK}
	if err := p.export(ctx, run); err != nil {
		exportStage.Status = StageFailed
		exportStage.Err = err.Error()
		log.Warn("export failed", zap.Error(err))
	}
	exportStage.Stats = map[string]any{"artifacts": len(run.Artifacts), "news": len(run.News)}
	exportStage.Elapsed = time.Since(start)
	run.Stages = append(run.Stages, exportStage)

	run.Status = RunDone
	for _, st := range run.Stages {
		if st.Status == StageFailed {
			run.Status = RunPartial
			run.Err = st.Err
		}
	}
	run.Stages = append(run.Stages, StageResult{Stage: StageDone, Status: StageOK})
	run.FinishedAt = p.now().In(loc)
	p.saveRun(ctx, log, run)

	log.Info("pipeline finished",
		zap.String("status", run.Status),
		zap.Int("days_fetched", run.DaysFetched),
		zap.Int("news", len(run.News)),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.CrawlTime)))
	return run, nil
}

// fail records a FETCH_BOARD failure. The no-data artifacts are written only
// for board.ErrNoDataFound.
func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, run *Run, stage Stage, err error, elapsed time.Duration) (*Run, error) {
	run.Status = RunFailed
	run.FailedStage = stage
	run.Err = err.Error()
	run.News = []news.Item{}
	run.Stages = append(run.Stages, StageResult{Stage: stage, Status: StageFailed, Err: err.Error(), Elapsed: elapsed})

	log.Error("pipeline failed",
		zap.String("stage", string(stage)),
		zap.Int("attempts", len(run.Attempts)),
		zap.Error(err))

	if p.Writer != nil && errors.Is(err, board.ErrNoDataFound) {
		if path, werr := p.Writer.WriteBoard(export.EmptyBoardArtifact(run.CrawlTime)); werr != nil {
			log.Error("write fallback board artifact", zap.Error(werr))
		} else {
			run.Artifacts = append(run.Artifacts, path)
		}
		if path, werr := p.Writer.WriteNews(run.News); werr != nil {
			log.Error("write fallback news artifact", zap.Error(werr))
		} else {
			run.Artifacts = append(run.Artifacts, path)
		}
	}
	run.FinishedAt = p.now().In(run.CrawlTime.Location())
	p.saveRun(ctx, log, run)
	return run, fmt.Errorf("%s: %w", stage, err)
}

func (p *Pipeline) export(ctx context.Context, run *Run) error {
	var errs []error
	dates := run.Dates()

	if p.Writer != nil {
		latest := ""
		var entries []models.BoardEntry
		if len(dates) > 0 {
			latest = dates[0]
			entries = run.Boards[latest]
		}
		if path, err := p.Writer.WriteBoard(export.NewBoardArtifact(run.CrawlTime, latest, entries, run.DaysFetched)); err != nil {
			errs = append(errs, fmt.Errorf("board artifact: %w", err))
		} else {
			run.Artifacts = append(run.Artifacts, path)
		}
		if run.DaysFetched > 1 {
			if path, err := p.Writer.WriteHistory(export.NewHistoryArtifact(run.CrawlTime, run.Boards)); err != nil {
				errs = append(errs, fmt.Errorf("history artifact: %w", err))
			} else {
				run.Artifacts = append(run.Artifacts, path)
			}
		}
		if path, err := p.Writer.WriteNews(run.News); err != nil {
			errs = append(errs, fmt.Errorf("news artifact: %w", err))
		} else {
			run.Artifacts = append(run.Artifacts, path)
		}
	}

	if p.Sink != nil {
		for _, date := range dates {
			if err := p.Sink.SaveBoard(ctx, date, run.Boards[date]); err != nil {
				errs = append(errs, fmt.Errorf("save board %s: %w", date, err))
			}
		}
		if len(run.News) > 0 {
			if err := p.Sink.SaveNews(ctx, run.News); err != nil {
				errs = append(errs, fmt.Errorf("save news: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) saveRun(ctx context.Context, log *zap.Logger, run *Run) {
	if p.Sink == nil {
		return
	}
	if err := p.Sink.SaveRun(context.WithoutCancel(ctx), run.Model()); err != nil {
		log.Warn("save pipeline run", zap.Error(err))
	}
}

func (p *Pipeline) logBoards(log *zap.Logger, run *Run) {
	for _, date := range run.Dates() {
		entries := run.Boards[date]
		fields := []zap.Field{zap.String("date", date), zap.Int("entries", len(entries))}
		if len(entries) > 0 {
			top := entries[0]
			fields = append(fields,
				zap.String("top_code", top.StockCode),
				zap.String("top_name", top.StockName),
				zap.String("top_net_inflow", export.FormatAmount(top.NetInflow)))
		}
		log.Info("board normalized", fields...)
	}
}

// Dates lists fetched trading dates, newest first.
func (r *Run) Dates() []string {
	dates := make([]string, 0, len(r.Boards))
	for d := range r.Boards {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func statsMap(s news.CollectStats) map[string]any {
	return map[string]any{
		"candidates":    s.Candidates,
		"duplicates":    s.Duplicates,
		"pinned":        s.Pinned,
		"no_references": s.NoReferences,
		"failed":        s.Failed,
		"kept":          s.Kept,
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
