package news

import (
	"encoding/json"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	UnknownAuthor   = "未知作者"
	SourceJiuyan    = "韭研公社"
)

var (
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
	spaceRe     = regexp.MustCompile(`\s+`)
	scriptObjRe = regexp.MustCompile(`\{[^{}]*"title"[^{}]*\}`)
	authorRes   = []*regexp.Regexp{
		regexp.MustCompile(`作者[:：]\s*(\S+)`),
		regexp.MustCompile(`发布者[:：]\s*(\S+)`),
		regexp.MustCompile(`编辑[:：]\s*(\S+)`),
	}
)

// Candidate is a news entry lifted from markup, before stock extraction.
type Candidate struct {
	Title     string
	URL       string
	Text      string
	Preview   string
	Author    string
	Source    string
	Timestamp string
	Published time.Time
	Links     []LinkCandidate
}

// PageParser lifts news candidates out of the community home page.
type PageParser struct {
	BaseURL    string
	PreviewLen int
	// Limit below which embedded script data is also scanned.
	Limit    int
	Location *time.Location

	converter *md.Converter
}

func NewPageParser(baseURL string, previewLen, limit int, loc *time.Location) *PageParser {
	conv := md.NewConverter("", true, nil)
	conv.Remove("script", "style", "img", "noscript")
	conv.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})
	if previewLen <= 0 {
		previewLen = 200
	}
	if loc == nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	return &PageParser{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		PreviewLen: previewLen,
		Limit:      limit,
		Location:   loc,
		converter:  conv,
	}
}

// Parse reads containers that carry exactly one timestamp. Wrappers around
// several entries carry more than one and are skipped.
func (p *PageParser) Parse(r io.Reader) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	doc.Find("div[class], article[class], li[class]").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		stamps := timestampRe.FindAllString(text, 2)
		if len(stamps) != 1 {
			return
		}
		title, href := p.title(s)
		if title == "" {
			return
		}
		out = append(out, Candidate{
			Title:     title,
			URL:       href,
			Text:      collapse(text),
			Preview:   p.preview(s),
			Author:    extractAuthor(text),
			Source:    SourceJiuyan,
			Timestamp: stamps[0],
			Published: p.parseTime(stamps[0]),
			Links:     p.links(s),
		})
	})

	if p.Limit <= 0 || len(out) < p.Limit {
		out = append(out, p.scriptCandidates(doc)...)
	}
	return out, nil
}

// title prefers anchors and headings, then falls back to spans and divs.
func (p *PageParser) title(s *goquery.Selection) (string, string) {
	for _, sel := range []string{"a, h1, h2, h3, h4, h5, h6", "span, div"} {
		var title, href string
		s.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := strings.TrimSpace(el.Text())
			n := utf8.RuneCountInString(text)
			if n <= 10 || n >= 200 {
				return true
			}
			title = collapse(text)
			if goquery.NodeName(el) == "a" {
				if h, ok := el.Attr("href"); ok {
					href = p.absolute(h)
				}
			}
			return false
		})
		if title != "" {
			return title, href
		}
	}
	return "", ""
}

func (p *PageParser) links(s *goquery.Selection) []LinkCandidate {
	var out []LinkCandidate
	s.Find("div.source-box").Each(func(_ int, box *goquery.Selection) {
		a := box.Find("a.text").First()
		name := strings.TrimSpace(a.Text())
		href, ok := a.Attr("href")
		if name == "" || !ok || strings.TrimSpace(href) == "" {
			return
		}
		out = append(out, LinkCandidate{Name: name, Href: p.absolute(href), Code: codeFromHref(href)})
	})
	return out
}

func (p *PageParser) preview(s *goquery.Selection) string {
	html, err := goquery.OuterHtml(s)
	if err != nil {
		return Preview(s.Text(), p.PreviewLen)
	}
	text, err := p.converter.ConvertString(html)
	if err != nil {
		return Preview(s.Text(), p.PreviewLen)
	}
	return Preview(text, p.PreviewLen)
}

type scriptNews struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	PublishTime string `json:"publish_time"`
	Time        string `json:"time"`
	Date        string `json:"date"`
	Author      string `json:"author"`
	Username    string `json:"username"`
}

// scriptCandidates picks flat JSON objects with a title out of inline scripts.
func (p *PageParser) scriptCandidates(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, obj := range scriptObjRe.FindAllString(s.Text(), -1) {
			var sn scriptNews
			if err := json.Unmarshal([]byte(obj), &sn); err != nil {
				continue
			}
			title := strings.TrimSpace(sn.Title)
			if utf8.RuneCountInString(title) < 5 {
				continue
			}
			body := firstNonEmpty(sn.Content, sn.Summary, sn.Description)
			text, links := p.fragment(body)
			stamp := firstNonEmpty(sn.PublishTime, sn.Time, sn.Date)
			out = append(out, Candidate{
				Title:     title,
				URL:       p.absolute(sn.URL),
				Text:      text,
				Preview:   Preview(text, p.PreviewLen),
				Author:    firstNonEmpty(sn.Author, sn.Username, UnknownAuthor),
				Source:    SourceJiuyan,
				Timestamp: stamp,
				Published: p.parseTime(stamp),
				Links:     links,
			})
		}
	})
	return out
}

// fragment returns the visible text and stock links of an HTML snippet.
func (p *PageParser) fragment(html string) (string, []LinkCandidate) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html), nil
	}
	return collapse(doc.Text()), p.links(doc.Selection)
}

func (p *PageParser) absolute(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return p.BaseURL + href
}

func (p *PageParser) parseTime(s string) time.Time {
	return ParseTimestamp(s, p.Location)
}

// ParseTimestamp accepts the site's local timestamp format, RFC 3339 and plain dates.
func ParseTimestamp(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{TimestampLayout, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// Preview collapses whitespace, strips timestamps and truncates to n runes.
func Preview(text string, n int) string {
	cleaned := collapse(timestampRe.ReplaceAllString(collapse(text), ""))
	if n <= 0 || utf8.RuneCountInString(cleaned) <= n {
		return cleaned
	}
	return string([]rune(cleaned)[:n]) + "..."
}

func extractAuthor(text string) string {
	for _, re := range authorRes {
		if m := re.FindStringSubmatch(text); len(m) == 2 {
			return m[1]
		}
	}
	return UnknownAuthor
}

func codeFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("k"))
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
