package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"boardwatch/internal/board"
	"boardwatch/internal/pipeline"
	"boardwatch/internal/repository"
	"boardwatch/internal/service"
)

type PipelineTrigger interface {
	Trigger(ctx context.Context, opts pipeline.Options) (*pipeline.Run, error)
	Last() *pipeline.Run
}

type PipelineHandler struct {
	Service  PipelineTrigger
	Repo     repository.Repository
	Location *time.Location
}

type runRequest struct {
	Days int    `json:"days"`
	Date string `json:"date"`
}

func (h *PipelineHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/pipeline")
	group.POST("/run", h.run)
	group.GET("/runs", h.runs)
	group.GET("/last", h.last)
}

func (h *PipelineHandler) run(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusServiceUnavailable, "pipeline unavailable", nil)
		return
	}
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid request body", nil)
			return
		}
	}
	opts := pipeline.Options{Days: req.Days}
	if date := strings.TrimSpace(req.Date); date != "" {
		loc := h.Location
		if loc == nil {
			loc = time.Local
		}
		t, err := time.ParseInLocation(board.DateLayout, date, loc)
		if err != nil {
			Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
			return
		}
		opts.Today = t
	}

	// A client disconnect must not abort a scan halfway.
	run, err := h.Service.Trigger(context.WithoutCancel(c.Request.Context()), opts)
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	case run == nil:
		msg := "pipeline returned no run"
		if err != nil {
			msg = err.Error()
		}
		Error(c, http.StatusInternalServerError, msg, nil)
		return
	}
	meta := map[string]any{"status": run.Status}
	if err != nil {
		meta["error"] = err.Error()
	}
	Ok(c, run, meta)
}

func (h *PipelineHandler) runs(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListPipelineRuns(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *PipelineHandler) last(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusServiceUnavailable, "pipeline unavailable", nil)
		return
	}
	run := h.Service.Last()
	if run == nil {
		Error(c, http.StatusNotFound, "no run yet", nil)
		return
	}
	Ok(c, run, nil)
}
