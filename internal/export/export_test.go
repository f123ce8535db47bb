package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"boardwatch/internal/config"
	"boardwatch/internal/models"
	"boardwatch/internal/news"
)

var crawl = time.Date(2024, 1, 3, 16, 30, 5, 0, time.UTC)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "123456789", want: "1.23亿"},
		{in: "-250000000", want: "-2.50亿"},
		{in: "56780", want: "5.68万"},
		{in: "9999.5", want: "9999.50"},
		{in: "0", want: "0.00"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.in))
		if got != tc.want {
			t.Fatalf("FormatAmount(%s)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestWriteBoard_NumbersAndShape(t *testing.T) {
	w := NewWriter(config.ExportConfig{Dir: t.TempDir()})
	entries := []models.BoardEntry{{
		TradingDate:      "2024-01-03",
		StockCode:        "000001",
		StockName:        "平安银行",
		NetInflow:        decimal.RequireFromString("123456789.5"),
		ChangePercent:    decimal.RequireFromString("9.98"),
		BuyerDescription: "机构专用, 深股通专用",
		Rank:             1,
	}}
	path, err := w.WriteBoard(NewBoardArtifact(crawl, "2024-01-03", entries, 1))
	if err != nil {
		t.Fatalf("WriteBoard err=%v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"net_inflow": 123456789.5`) {
		t.Fatalf("net_inflow not written as a number:\n%s", raw)
	}
	if !strings.Contains(string(raw), "平安银行") {
		t.Fatalf("expected unescaped name:\n%s", raw)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["crawl_time"] != "2024-01-03 16:30:05" || got["date"] != "2024-01-03" || got["no_data"] != false {
		t.Fatalf("artifact=%v", got)
	}
	rows := got["top_n_entries"].([]any)
	buyers := rows[0].(map[string]any)["buyers"].([]any)
	if len(buyers) != 2 || buyers[1] != "深股通专用" {
		t.Fatalf("buyers=%v", buyers)
	}
}

func TestWriteBoard_EmptyFallback(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ExportConfig{Dir: dir, BoardFile: "b.json"})
	if _, err := w.WriteBoard(EmptyBoardArtifact(crawl)); err != nil {
		t.Fatalf("WriteBoard err=%v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "b.json"))
	var got BoardArtifact
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.NoData || got.TopNEntries == nil || len(got.TopNEntries) != 0 || got.DaysFetched != 0 {
		t.Fatalf("artifact=%+v", got)
	}
	if !strings.Contains(string(raw), `"top_n_entries": []`) {
		t.Fatalf("expected empty list, got:\n%s", raw)
	}
}

func TestWriteHistoryAndNews(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(config.ExportConfig{Dir: dir})
	byDate := map[string][]models.BoardEntry{
		"2024-01-03": {{TradingDate: "2024-01-03", StockCode: "000001", Rank: 1}},
		"2024-01-02": {{TradingDate: "2024-01-02", StockCode: "600000", Rank: 1}},
	}
	if _, err := w.WriteHistory(NewHistoryArtifact(crawl, byDate)); err != nil {
		t.Fatalf("WriteHistory err=%v", err)
	}
	var hist HistoryArtifact
	raw, _ := os.ReadFile(filepath.Join(dir, "board_history.json"))
	if err := json.Unmarshal(raw, &hist); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if hist.DaysFetched != 2 || len(hist.DataByDate["2024-01-02"]) != 1 {
		t.Fatalf("history=%+v", hist)
	}

	if _, err := w.WriteNews(nil); err != nil {
		t.Fatalf("WriteNews err=%v", err)
	}
	raw, _ = os.ReadFile(filepath.Join(dir, "news_latest.json"))
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("news=%q want=[]", raw)
	}

	items := []news.Item{{Title: "t", References: []news.StockReference{{Kind: news.KindNumericCode, Value: "000001"}}}}
	if _, err := w.WriteNews(items); err != nil {
		t.Fatalf("WriteNews err=%v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}
