package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type probeCall struct {
	date    string
	variant Variant
}

type scriptedSource struct {
	calls   []probeCall
	respond func(n int, date string, v Variant) ([]byte, error)
}

func (s *scriptedSource) FetchBoard(ctx context.Context, date string, v Variant) ([]byte, error) {
	s.calls = append(s.calls, probeCall{date: date, variant: v})
	return s.respond(len(s.calls), date, v)
}

const (
	emptyPayload = `success|{"ErrorCode":0,"tables":[{"Content":[]}]}`
	boardPayload = `success|{"ErrorCode":0,"tables":[{"Content":[["0","深科技","000021","dr",190430079,"T王","9.98"]]}]}`
)

func noSleep(context.Context, time.Duration) error { return nil }

// 2024-01-03 is a Wednesday.
var wednesday = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

func TestFetchBoard_FourthAttemptWins(t *testing.T) {
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		switch n {
		case 1:
			return nil, errors.New("connection reset")
		case 2:
			return []byte(`{"ErrorCode":7,"ErrorInfo":"busy"}`), nil
		case 3:
			return []byte(emptyPayload), nil
		default:
			return []byte(boardPayload), nil
		}
	}}
	f := &Fetcher{Source: src, Sleep: noSleep}

	day, err := f.FetchBoard(context.Background(), wednesday, 30)
	if err != nil {
		t.Fatalf("FetchBoard err=%v", err)
	}
	if len(src.calls) != 4 {
		t.Fatalf("calls=%d want=4", len(src.calls))
	}
	if day.Date != "2024-01-03" || day.Variant != DefaultVariants[3] {
		t.Fatalf("day=%s variant=%+v", day.Date, day.Variant)
	}
	if len(day.Entries) != 1 || day.Entries[0].TradingDate != "2024-01-03" {
		t.Fatalf("entries=%+v", day.Entries)
	}
}

func TestFetchBoard_FallsBackToPreviousDate(t *testing.T) {
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		if date == "2024-01-02" && v == DefaultVariants[1] {
			return []byte(boardPayload), nil
		}
		return []byte(emptyPayload), nil
	}}
	var sleeps int
	f := &Fetcher{Source: src, DateDelay: time.Second, Sleep: func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}}

	day, err := f.FetchBoard(context.Background(), wednesday, 30)
	if err != nil {
		t.Fatalf("FetchBoard err=%v", err)
	}
	if day.Date != "2024-01-02" {
		t.Fatalf("date=%s want=2024-01-02", day.Date)
	}
	if len(src.calls) != len(DefaultVariants)+2 {
		t.Fatalf("calls=%d want=%d", len(src.calls), len(DefaultVariants)+2)
	}
	if sleeps != 1 {
		t.Fatalf("sleeps=%d want=1", sleeps)
	}
}

func TestScan_ExhaustsExactlyMaxLookbackDates(t *testing.T) {
	for _, maxDays := range []int{1, 5, 30} {
		src := &scriptedSource{respond: func(int, string, Variant) ([]byte, error) {
			return []byte(emptyPayload), nil
		}}
		f := &Fetcher{Source: src, Sleep: noSleep}
		res, err := f.Scan(context.Background(), ScanOptions{Today: wednesday, Days: 1, MaxLookbackDays: maxDays})
		if !errors.Is(err, ErrNoDataFound) {
			t.Fatalf("max=%d err=%v want ErrNoDataFound", maxDays, err)
		}
		if res.DatesProbed != maxDays {
			t.Fatalf("max=%d dates=%d", maxDays, res.DatesProbed)
		}
		dates := map[string]bool{}
		for _, c := range src.calls {
			dates[c.date] = true
		}
		if len(dates) != maxDays || len(src.calls) != maxDays*len(DefaultVariants) {
			t.Fatalf("max=%d distinct=%d calls=%d", maxDays, len(dates), len(src.calls))
		}
	}
}

func TestScan_WeekendSkipsTodayUnlessForced(t *testing.T) {
	saturday := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	src := &scriptedSource{respond: func(int, string, Variant) ([]byte, error) {
		return []byte(boardPayload), nil
	}}
	f := &Fetcher{Source: src, Sleep: noSleep}
	if _, err := f.FetchBoard(context.Background(), saturday, 30); err != nil {
		t.Fatalf("err=%v", err)
	}
	if src.calls[0].date != "2024-01-05" {
		t.Fatalf("first probe=%s want=2024-01-05", src.calls[0].date)
	}

	src.calls = nil
	f.ForceToday = true
	if _, err := f.FetchBoard(context.Background(), saturday, 30); err != nil {
		t.Fatalf("err=%v", err)
	}
	if src.calls[0].date != "2024-01-06" {
		t.Fatalf("forced first probe=%s want=2024-01-06", src.calls[0].date)
	}
}

func TestScan_CollectsMultipleDays(t *testing.T) {
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		if date == "2024-01-01" {
			return []byte(emptyPayload), nil
		}
		return []byte(boardPayload), nil
	}}
	f := &Fetcher{Source: src, Sleep: noSleep}
	res, err := f.Scan(context.Background(), ScanOptions{Today: wednesday, Days: 3, MaxLookbackDays: 30})
	if err != nil {
		t.Fatalf("Scan err=%v", err)
	}
	got := make([]string, 0, len(res.Days))
	for _, d := range res.Days {
		got = append(got, d.Date)
	}
	want := []string{"2024-01-03", "2024-01-02", "2023-12-31"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("days=%v want=%v", got, want)
	}
}

func TestScan_DateTimeoutAdvancesWindow(t *testing.T) {
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		if date == "2024-01-03" {
			time.Sleep(30 * time.Millisecond)
			return nil, context.DeadlineExceeded
		}
		return []byte(boardPayload), nil
	}}
	f := &Fetcher{Source: src, Sleep: noSleep, DateTimeout: 10 * time.Millisecond}
	day, err := f.FetchBoard(context.Background(), wednesday, 30)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if day.Date != "2024-01-02" {
		t.Fatalf("date=%s want=2024-01-02", day.Date)
	}
	if src.calls[0].date != "2024-01-03" || src.calls[1].date != "2024-01-02" {
		t.Fatalf("calls=%+v", src.calls)
	}
}

func TestScan_ParentCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		cancel()
		return nil, ctx.Err()
	}}
	f := &Fetcher{Source: src, Sleep: SleepContext}
	_, err := f.Scan(ctx, ScanOptions{Today: wednesday, MaxLookbackDays: 30})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if len(src.calls) != 1 {
		t.Fatalf("calls=%d want=1", len(src.calls))
	}
}

func TestScan_AttemptsRecorded(t *testing.T) {
	src := &scriptedSource{respond: func(n int, date string, v Variant) ([]byte, error) {
		switch n {
		case 1:
			return []byte("garbage"), nil
		case 2:
			return nil, errors.New("timeout")
		default:
			return []byte(boardPayload), nil
		}
	}}
	var payloads int
	f := &Fetcher{Source: src, Sleep: noSleep, OnPayload: func(context.Context, string, Variant, []byte) { payloads++ }}
	res, err := f.Scan(context.Background(), ScanOptions{Today: wednesday})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []Outcome{OutcomeError, OutcomeError, OutcomeSuccess}
	if len(res.Attempts) != len(want) {
		t.Fatalf("attempts=%d want=%d", len(res.Attempts), len(want))
	}
	for i, a := range res.Attempts {
		if a.Outcome != want[i] {
			t.Fatalf("attempt[%d]=%s want=%s", i, a.Outcome, want[i])
		}
	}
	if res.Attempts[2].Rows != 1 || payloads != 1 {
		t.Fatalf("rows=%d payloads=%d", res.Attempts[2].Rows, payloads)
	}
}

func TestClampDays(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 1, 7: 7, 30: 30, 99: 30}
	for in, want := range cases {
		if got := ClampDays(in); got != want {
			t.Fatalf("ClampDays(%d)=%d want=%d", in, got, want)
		}
	}
}
