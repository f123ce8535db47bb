package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"boardwatch/internal/board"
	"boardwatch/internal/export"
	"boardwatch/internal/models"
	"boardwatch/internal/repository"
)

// BoardHandler serves stored boards, falling back to the last in-memory run
// when no database is configured.
type BoardHandler struct {
	Repo     repository.Repository
	Pipeline PipelineTrigger
}

func (h *BoardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/board", h.get)
}

func (h *BoardHandler) get(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date != "" {
		if _, err := time.Parse(board.DateLayout, date); err != nil {
			Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
			return
		}
	}

	var (
		entries []models.BoardEntry
		err     error
	)
	switch {
	case h.Repo != nil:
		date, entries, err = h.fromRepo(c, date)
	case h.Pipeline != nil:
		date, entries = h.fromLastRun(date)
	default:
		Error(c, http.StatusServiceUnavailable, "board unavailable", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if len(entries) == 0 {
		Error(c, http.StatusNotFound, "no board for date", map[string]any{"date": date})
		return
	}
	Ok(c, gin.H{"date": date, "entries": export.Rows(entries)}, map[string]any{"count": len(entries)})
}

func (h *BoardHandler) fromRepo(c *gin.Context, date string) (string, []models.BoardEntry, error) {
	ctx := c.Request.Context()
	if date == "" {
		latest, err := h.Repo.LatestBoardDate(ctx)
		if err != nil || latest == "" {
			return latest, nil, err
		}
		date = latest
	}
	entries, err := h.Repo.ListBoardEntries(ctx, date)
	return date, entries, err
}

func (h *BoardHandler) fromLastRun(date string) (string, []models.BoardEntry) {
	run := h.Pipeline.Last()
	if run == nil {
		return date, nil
	}
	if date == "" {
		dates := run.Dates()
		if len(dates) == 0 {
			return date, nil
		}
		date = dates[0]
	}
	return date, run.Boards[date]
}
