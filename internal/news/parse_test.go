package news

import (
	"strings"
	"testing"
	"time"
)

const homePage = `<html><body>
<div class="list">
  <li class="item">
    <a href="/a/abc123">深科技今日涨停，存储芯片逻辑梳理</a>
    <div class="meta">作者：老韭菜 2024-01-02 15:30:00</div>
    <div class="source-box"><a class="text" href="/stock?k=000021">深科技</a></div>
    <p>机构专用席位大额买入 000021 。</p>
  </li>
  <li class="item">
    <h3>【置顶】长韭杯报名通道开启啦欢迎参加</h3>
    <div class="meta">2024-01-02 09:00:00</div>
  </li>
  <li class="item">
    <a href="https://other.example.com/p/9">没有股票的闲聊帖子内容比较长一些</a>
    <span class="t">2024-01-01 08:00:00</span>
  </li>
</div>
<script>var s = {"title":"脚本里的新闻标题 600519","content":"<div class=\"source-box\"><a class=\"text\" href=\"/stock?k=600519\">贵州茅台</a></div>","publish_time":"2024-01-03 10:00:00","username":"小明"};</script>
</body></html>`

func TestPageParser_Parse(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	p := NewPageParser("https://www.jiuyangongshe.com/", 200, 20, loc)
	cands, err := p.Parse(strings.NewReader(homePage))
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	if len(cands) != 4 {
		for _, c := range cands {
			t.Logf("candidate: %q", c.Title)
		}
		t.Fatalf("candidates=%d want=4", len(cands))
	}

	first := cands[0]
	if first.Title != "深科技今日涨停，存储芯片逻辑梳理" {
		t.Fatalf("title=%q", first.Title)
	}
	if first.URL != "https://www.jiuyangongshe.com/a/abc123" {
		t.Fatalf("url=%q", first.URL)
	}
	if first.Author != "老韭菜" {
		t.Fatalf("author=%q", first.Author)
	}
	if !first.Published.Equal(time.Date(2024, 1, 2, 15, 30, 0, 0, loc)) {
		t.Fatalf("published=%v", first.Published)
	}
	if len(first.Links) != 1 || first.Links[0].Code != "000021" || first.Links[0].Href != "https://www.jiuyangongshe.com/stock?k=000021" {
		t.Fatalf("links=%+v", first.Links)
	}
	if strings.Contains(first.Preview, "2024-01-02") {
		t.Fatalf("preview should drop timestamps: %q", first.Preview)
	}

	if cands[2].Author != UnknownAuthor || cands[2].URL != "https://other.example.com/p/9" {
		t.Fatalf("third=%+v", cands[2])
	}

	script := cands[3]
	if script.Author != "小明" || len(script.Links) != 1 || script.Links[0].Name != "贵州茅台" {
		t.Fatalf("script candidate=%+v", script)
	}
}

func TestPreview_Truncates(t *testing.T) {
	text := "  2024-01-02 15:30:00  " + strings.Repeat("字", 250)
	got := Preview(text, 200)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("want ellipsis, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 200 {
		t.Fatalf("runes=%d want=200", n)
	}
	if Preview("短 文本", 200) != "短 文本" {
		t.Fatalf("short text should pass through")
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	cases := map[string]bool{
		"2024-01-02 15:30:00":       true,
		"2024-01-02":                true,
		"2024-01-02T15:30:00+08:00": true,
		"yesterday":                 false,
		"":                          false,
	}
	for in, ok := range cases {
		if got := ParseTimestamp(in, loc); got.IsZero() == ok {
			t.Fatalf("ParseTimestamp(%q)=%v ok=%v", in, got, ok)
		}
	}
}
