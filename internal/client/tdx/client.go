package tdx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"boardwatch/internal/board"
)

const (
	defaultHost   = "http://page.tdx.com.cn:7615"
	execPath      = "/tdx/Exec"
	boardFuncID   = "CWServ.cfg_fx_yzlhb_lhb"
	serverTimeout = "30000"
)

// Client talks to the board query endpoint. It is safe for concurrent use and
// keeps at most one request per MinInterval in flight towards the endpoint.
type Client struct {
	host        string
	httpClient  *http.Client
	userAgent   string
	referer     string
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
	now      func() time.Time
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

type Options struct {
	Host        string
	UserAgent   string
	Referer     string
	MinInterval time.Duration
}

func NewClient(httpClient *http.Client, opts Options) *Client {
	host := strings.TrimRight(opts.Host, "/")
	if host == "" {
		host = defaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		host:        host,
		httpClient:  httpClient,
		userAgent:   opts.UserAgent,
		referer:     opts.Referer,
		minInterval: opts.MinInterval,
		now:         time.Now,
	}
}

// FetchBoard requests page 1 of the board for date and variant and returns the raw body.
func (c *Client) FetchBoard(ctx context.Context, date string, variant board.Variant) ([]byte, error) {
	if date == "" {
		return nil, fmt.Errorf("date is required")
	}
	body, err := json.Marshal(map[string]any{
		"Params": []any{variant.Category, date, variant.SortField, 1},
	})
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("funcid", boardFuncID)
	query.Set("bodystr", string(body))
	query.Set("timeout", serverTimeout)
	query.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))
	query.Set("rnd", strconv.Itoa(1000+rand.Intn(9000)))
	return c.doRequest(ctx, execPath, query)
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.host)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// wait enforces the minimum spacing between calls to the endpoint.
func (c *Client) wait(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastCall.IsZero() {
		if gap := c.minInterval - c.now().Sub(c.lastCall); gap > 0 {
			if err := board.SleepContext(ctx, gap); err != nil {
				return err
			}
		}
	}
	c.lastCall = c.now()
	return nil
}
