package news

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubPage struct {
	body []byte
	err  error
}

func (s stubPage) FetchHome(context.Context) ([]byte, error) {
	return s.body, s.err
}

func newTestCollector(t *testing.T, page PageSource, limit int) *Collector {
	t.Helper()
	return &Collector{
		Page:      page,
		Parser:    NewPageParser("https://www.jiuyangongshe.com", 200, 20, time.FixedZone("CST", 8*3600)),
		Extractor: testExtractor(t),
		Limit:     limit,
	}
}

func TestCollector_FiltersAndSorts(t *testing.T) {
	c := newTestCollector(t, stubPage{body: []byte(homePage)}, 20)
	items, stats, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect err=%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items=%d want=2 stats=%+v", len(items), stats)
	}
	if items[0].Title != "脚本里的新闻标题 600519" {
		t.Fatalf("newest first, got %q", items[0].Title)
	}
	if items[1].References[0].Kind != KindLinked {
		t.Fatalf("linked ref should lead: %+v", items[1].References)
	}
	if stats.Pinned != 1 || stats.NoReferences != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	for _, it := range items {
		if it.IsPinned || len(it.References) == 0 {
			t.Fatalf("item should have been excluded: %+v", it)
		}
	}
}

func TestCollector_LimitAndDedup(t *testing.T) {
	c := newTestCollector(t, nil, 1)
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	cands := []Candidate{
		{Title: "标题甲 000021", Published: base},
		{Title: "标题甲 000021", Published: base.Add(time.Hour)},
		{Title: "标题乙 600000", Published: base.Add(2 * time.Hour)},
		{Title: ""},
	}
	items, stats := c.Build(cands)
	if stats.Duplicates != 1 || stats.Failed != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if len(items) != 1 || items[0].Title != "标题乙 600000" {
		t.Fatalf("items=%+v", items)
	}
}

func TestCollector_PageFailure(t *testing.T) {
	c := newTestCollector(t, stubPage{err: errors.New("403")}, 20)
	items, _, err := c.Collect(context.Background())
	if err == nil {
		t.Fatalf("expected error when the only source fails")
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("items should be empty, got %#v", items)
	}
}
