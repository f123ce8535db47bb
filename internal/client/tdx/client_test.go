package tdx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boardwatch/internal/board"
)

func TestClient_FetchBoardRequestShape(t *testing.T) {
	var gotQuery map[string]string
	var gotReferer, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tdx/Exec" {
			t.Errorf("path=%s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"funcid":  q.Get("funcid"),
			"bodystr": q.Get("bodystr"),
			"timeout": q.Get("timeout"),
			"rnd":     q.Get("rnd"),
			"_":       q.Get("_"),
		}
		gotReferer = r.Header.Get("Referer")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`success|{"ErrorCode":0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{Host: srv.URL, UserAgent: "ua-test", Referer: "ref-test"})
	body, err := c.FetchBoard(context.Background(), "2024-01-02", board.Variant{Category: "pt", SortField: "jmr"})
	if err != nil {
		t.Fatalf("FetchBoard err=%v", err)
	}
	if string(body) != `success|{"ErrorCode":0}` {
		t.Fatalf("body=%s", body)
	}
	if gotQuery["funcid"] != "CWServ.cfg_fx_yzlhb_lhb" || gotQuery["timeout"] != "30000" {
		t.Fatalf("query=%v", gotQuery)
	}
	var params struct {
		Params []any `json:"Params"`
	}
	if err := json.Unmarshal([]byte(gotQuery["bodystr"]), &params); err != nil {
		t.Fatalf("bodystr=%s err=%v", gotQuery["bodystr"], err)
	}
	if len(params.Params) != 4 || params.Params[0] != "pt" || params.Params[1] != "2024-01-02" || params.Params[2] != "jmr" {
		t.Fatalf("params=%v", params.Params)
	}
	if len(gotQuery["rnd"]) != 4 || gotQuery["_"] == "" {
		t.Fatalf("cache busting params missing: %v", gotQuery)
	}
	if gotReferer != "ref-test" || gotUA != "ua-test" {
		t.Fatalf("referer=%q ua=%q", gotReferer, gotUA)
	}
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{Host: srv.URL})
	_, err := c.FetchBoard(context.Background(), "2024-01-02", board.DefaultVariants[0])
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("err=%v", err)
	}
}

func TestClient_MinIntervalSpacing(t *testing.T) {
	var calls []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, time.Now())
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{Host: srv.URL, MinInterval: 40 * time.Millisecond})
	for i := 0; i < 3; i++ {
		if _, err := c.FetchBoard(context.Background(), "2024-01-02", board.DefaultVariants[0]); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	if len(calls) != 3 {
		t.Fatalf("calls=%d", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if gap := calls[i].Sub(calls[i-1]); gap < 35*time.Millisecond {
			t.Fatalf("gap[%d]=%v want>=40ms", i, gap)
		}
	}
}
