package pipeline

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"boardwatch/internal/board"
	"boardwatch/internal/models"
	"boardwatch/internal/news"
)

type Stage string

const (
	StageFetchBoard  Stage = "FETCH_BOARD"
	StageDecode      Stage = "DECODE"
	StageNormalize   Stage = "NORMALIZE"
	StageExtractNews Stage = "EXTRACT_NEWS"
	StageExport      Stage = "EXPORT"
	StageDone        Stage = "DONE"
)

type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

const (
	RunDone    = "done"
	RunPartial = "partial"
	RunFailed  = "failed"
)

type StageResult struct {
	Stage   Stage          `json:"stage"`
	Status  StageStatus    `json:"status"`
	Stats   map[string]any `json:"stats,omitempty"`
	Err     string         `json:"error,omitempty"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Run is the report of one pipeline execution.
type Run struct {
	RunID         string                         `json:"run_id"`
	CrawlTime     time.Time                      `json:"crawl_time"`
	FinishedAt    time.Time                      `json:"finished_at"`
	TargetDate    string                         `json:"target_date"`
	DaysRequested int                            `json:"days_requested"`
	DaysFetched   int                            `json:"days_fetched"`
	EntryCounts   map[string]int                 `json:"entry_counts"`
	Stages        []StageResult                  `json:"stages"`
	Attempts      []board.Attempt                `json:"attempts"`
	Status        string                         `json:"status"`
	FailedStage   Stage                          `json:"failed_stage,omitempty"`
	Err           string                         `json:"error,omitempty"`
	Boards        map[string][]models.BoardEntry `json:"-"`
	News          []news.Item                    `json:"-"`
	Artifacts     []string                       `json:"artifacts"`
}

func (r *Run) stage(s Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == s {
			return &r.Stages[i]
		}
	}
	return nil
}

// LastStage is the furthest stage the run reached.
func (r *Run) LastStage() Stage {
	if r.Status == RunFailed {
		return r.FailedStage
	}
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Stage
}

// Model flattens the report into its persisted summary.
func (r *Run) Model() *models.PipelineRun {
	out := &models.PipelineRun{
		RunID:         r.RunID,
		CrawlTime:     r.CrawlTime.UTC(),
		TargetDate:    r.TargetDate,
		DaysRequested: r.DaysRequested,
		DaysFetched:   r.DaysFetched,
		Status:        r.Status,
		EntryCounts:   jsonOf(r.EntryCounts),
		StagesJSON:    jsonOf(r.Stages),
		AttemptsJSON:  jsonOf(r.Attempts),
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt.UTC()
		out.FinishedAt = &finished
	}
	if r.FailedStage != "" {
		stage := string(r.FailedStage)
		out.FailedStage = &stage
	}
	if r.Err != "" {
		msg := r.Err
		out.LastError = &msg
	}
	return out
}

func jsonOf(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
