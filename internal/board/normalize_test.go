package board

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"boardwatch/internal/models"
)

func entry(date, code, name string, inflow int64, rank int) models.BoardEntry {
	return models.BoardEntry{
		TradingDate: date,
		StockCode:   code,
		StockName:   name,
		NetInflow:   decimal.NewFromInt(inflow),
		Rank:        rank,
	}
}

func TestNormalize_DuplicateRowsFromDecode(t *testing.T) {
	raw := []byte(`{"ErrorCode":0,"tables":[{"Content":[["0","CoA","000021","dr",190430079,"BuyerX","9.98"],["0","CoB","000021","dr",50000000,"BuyerY","5.00"]]}]}`)
	rows, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}
	out := Normalize(Entries(rows, "2024-01-02"), 30)
	if len(out) != 1 {
		t.Fatalf("len=%d want=1", len(out))
	}
	got := out[0]
	if got.StockCode != "000021" || got.StockName != "CoA" || got.Rank != 1 {
		t.Fatalf("got=%+v", got)
	}
	if !got.NetInflow.Equal(decimal.NewFromInt(190430079)) {
		t.Fatalf("net_inflow=%s", got.NetInflow)
	}
}

func TestNormalize_DedupKeepsLowerPriorRank(t *testing.T) {
	in := []models.BoardEntry{
		entry("2024-01-02", "000001", "high-inflow", 900, 5),
		entry("2024-01-02", "000001", "better-rank", 100, 2),
		entry("2024-01-02", "600000", "other", 500, 1),
	}
	out := Normalize(in, 30)
	if len(out) != 2 {
		t.Fatalf("len=%d want=2", len(out))
	}
	for _, e := range out {
		if e.StockCode == "000001" && e.StockName != "better-rank" {
			t.Fatalf("kept=%s want=better-rank", e.StockName)
		}
	}
	if out[0].StockCode != "600000" || out[0].Rank != 1 || out[1].Rank != 2 {
		t.Fatalf("order=%+v", out)
	}
}

func TestNormalize_GroupsTruncatesAndRanks(t *testing.T) {
	in := []models.BoardEntry{
		entry("2024-01-01", "000001", "a", 10, 0),
		entry("2024-01-02", "000002", "b", 30, 0),
		entry("2024-01-02", "000003", "c", 50, 0),
		entry("2024-01-02", "000004", "d", 30, 0),
		entry("2024-01-02", "000005", "e", -5, 0),
	}
	out := Normalize(in, 3)
	if len(out) != 4 {
		t.Fatalf("len=%d want=4", len(out))
	}
	wantCodes := []string{"000003", "000002", "000004", "000001"}
	wantRanks := []int{1, 2, 3, 1}
	for i := range out {
		if out[i].StockCode != wantCodes[i] || out[i].Rank != wantRanks[i] {
			t.Fatalf("out[%d]=%s/%d want=%s/%d", i, out[i].StockCode, out[i].Rank, wantCodes[i], wantRanks[i])
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []models.BoardEntry{
		entry("2024-01-02", "000001", "a", 10, 3),
		entry("2024-01-02", "000001", "a2", 90, 0),
		entry("2024-01-02", "300750", "b", 10, 0),
		entry("2024-01-03", "600519", "c", 70, 0),
		entry("2024-01-02", "002594", "d", 40, 1),
		entry("2024-01-03", "600519", "c2", 80, 0),
	}
	once := Normalize(in, 2)
	twice := Normalize(once, 2)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent:\nonce=%+v\ntwice=%+v", once, twice)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if out := Normalize(nil, 30); out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", out)
	}
}
