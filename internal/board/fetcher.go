package board

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"boardwatch/internal/models"
)

// Source performs a single board request for one date and variant.
type Source interface {
	FetchBoard(ctx context.Context, date string, variant Variant) ([]byte, error)
}

// Fetcher walks a CandidatePlan until enough dates produce non-empty boards.
type Fetcher struct {
	Source      Source
	Variants    []Variant
	ForceToday  bool
	DateDelay   time.Duration
	DateTimeout time.Duration
	Logger      *zap.Logger

	// Sleep replaces the inter-date delay in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnPayload receives the JSON body of every successful probe.
	OnPayload func(ctx context.Context, date string, variant Variant, payload []byte)
}

type BoardDay struct {
	Date    string              `json:"date"`
	Variant Variant             `json:"variant"`
	Entries []models.BoardEntry `json:"entries"`
}

type ScanOptions struct {
	Today           time.Time
	Days            int
	MaxLookbackDays int
}

type ScanResult struct {
	Days        []BoardDay `json:"days"`
	Attempts    []Attempt  `json:"attempts"`
	DatesProbed int        `json:"dates_probed"`
}

// FetchBoard returns the newest non-empty board within the lookback window.
func (f *Fetcher) FetchBoard(ctx context.Context, today time.Time, maxLookbackDays int) (BoardDay, error) {
	res, err := f.Scan(ctx, ScanOptions{Today: today, Days: 1, MaxLookbackDays: maxLookbackDays})
	if err != nil {
		return BoardDay{}, err
	}
	return res.Days[0], nil
}

// Scan collects up to opts.Days boards, newest first. Probe failures are
// recorded and skipped; only an exhausted window surfaces as ErrNoDataFound.
func (f *Fetcher) Scan(ctx context.Context, opts ScanOptions) (ScanResult, error) {
	log := f.logger()
	want := ClampDays(opts.Days)
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	probeToday := f.ForceToday || IsTradingDay(today)
	plan := NewCandidatePlan(today, opts.MaxLookbackDays, probeToday, f.Variants)

	var (
		res     ScanResult
		dateCtx context.Context
		cancel  context.CancelFunc = func() {}
		current = -1
	)
	defer func() { cancel() }()

	for {
		c, ok := plan.Next()
		if !ok {
			break
		}
		if c.DateIndex != current {
			cancel()
			if current >= 0 {
				if err := f.sleep(ctx, f.DateDelay); err != nil {
					return res, err
				}
			}
			current = c.DateIndex
			res.DatesProbed++
			dateCtx, cancel = f.dateContext(ctx)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if dateCtx.Err() != nil {
			log.Warn("board date deadline exceeded, advancing",
				zap.String("date", c.Date.Format(DateLayout)))
			plan.SkipDate()
			continue
		}

		attempt, rows := f.probe(dateCtx, c)
		res.Attempts = append(res.Attempts, attempt)
		if attempt.Outcome != OutcomeSuccess {
			continue
		}
		res.Days = append(res.Days, BoardDay{
			Date:    attempt.Date,
			Variant: c.Variant,
			Entries: Entries(rows, attempt.Date),
		})
		if len(res.Days) >= want {
			break
		}
		plan.SkipDate()
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(res.Days) == 0 {
		log.Error("board lookback window exhausted",
			zap.Int("dates", res.DatesProbed),
			zap.Int("attempts", len(res.Attempts)))
		return res, ErrNoDataFound
	}
	return res, nil
}

func (f *Fetcher) probe(ctx context.Context, c Candidate) (a Attempt, rows []Row) {
	log := f.logger()
	date := c.Date.Format(DateLayout)
	a = Attempt{Date: date, Category: c.Variant.Category, SortField: c.Variant.SortField}
	start := time.Now()
	defer func() { a.Elapsed = time.Since(start) }()

	fields := func() []zap.Field {
		return []zap.Field{
			zap.String("date", date),
			zap.String("category", a.Category),
			zap.String("sort", a.SortField),
			zap.String("outcome", string(a.Outcome)),
			zap.Int("rows", a.Rows),
		}
	}

	if f.Source == nil {
		a.Outcome = OutcomeError
		a.Err = "board source is nil"
		return a, nil
	}
	raw, err := f.Source.FetchBoard(ctx, date, c.Variant)
	if err != nil {
		err = &TransientError{Err: err}
		a.Outcome = OutcomeError
		a.Err = err.Error()
		log.Warn("board probe", append(fields(), zap.Error(err))...)
		return a, nil
	}

	rows, err = Decode(raw)
	var (
		upstream  *UpstreamError
		malformed *MalformedResponseError
	)
	switch {
	case err == nil:
		a.Outcome = OutcomeSuccess
		a.Rows = len(rows)
		log.Info("board probe", fields()...)
		if f.OnPayload != nil {
			if payload, ok := Payload(raw); ok {
				f.OnPayload(ctx, date, c.Variant, payload)
			}
		}
		return a, rows
	case errors.Is(err, ErrEmptyResult):
		a.Outcome = OutcomeEmpty
		log.Info("board probe", fields()...)
	case errors.As(err, &upstream):
		a.Outcome = OutcomeEmpty
		a.Err = err.Error()
		log.Warn("board probe", append(fields(), zap.Int("code", upstream.Code), zap.String("message", upstream.Message))...)
	case errors.As(err, &malformed):
		a.Outcome = OutcomeError
		a.Err = err.Error()
		log.Error("board probe", append(fields(), zap.Error(err))...)
	default:
		a.Outcome = OutcomeError
		a.Err = err.Error()
		log.Warn("board probe", append(fields(), zap.Error(err))...)
	}
	return a, nil
}

func (f *Fetcher) dateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.DateTimeout > 0 {
		return context.WithTimeout(ctx, f.DateTimeout)
	}
	return context.WithCancel(ctx)
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// ClampDays bounds a requested day count to 1..DefaultMaxLookbackDays.
func ClampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > DefaultMaxLookbackDays {
		return DefaultMaxLookbackDays
	}
	return days
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
