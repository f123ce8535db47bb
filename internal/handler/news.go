package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"boardwatch/internal/news"
	"boardwatch/internal/repository"
	"boardwatch/internal/service"
)

type NewsHandler struct {
	Repo     repository.Repository
	Pipeline PipelineTrigger
}

func (h *NewsHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/news", h.list)
}

func (h *NewsHandler) list(c *gin.Context) {
	params := repository.ListNewsParams{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
		Source: strings.TrimSpace(c.Query("source")),
	}
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	if h.Repo == nil {
		if h.Pipeline == nil {
			Error(c, http.StatusServiceUnavailable, "news unavailable", nil)
			return
		}
		items := []news.Item{}
		if run := h.Pipeline.Last(); run != nil {
			items = page(filterSource(run.News, params.Source), params.Offset, params.Limit)
		}
		Ok(c, items, map[string]any{"limit": params.Limit, "offset": params.Offset})
		return
	}

	ctx := c.Request.Context()
	rows, err := h.Repo.ListNewsItems(ctx, params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountNewsItems(ctx, params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	items := make([]news.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, service.NewsFromModel(row))
	}
	Ok(c, items, map[string]any{"limit": params.Limit, "offset": params.Offset, "total": total})
}

func filterSource(items []news.Item, source string) []news.Item {
	if source == "" {
		return items
	}
	out := make([]news.Item, 0, len(items))
	for _, it := range items {
		if it.SourceTag == source {
			out = append(out, it)
		}
	}
	return out
}

func page(items []news.Item, offset, limit int) []news.Item {
	if offset >= len(items) {
		return []news.Item{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
