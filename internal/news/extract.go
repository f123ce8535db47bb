package news

import (
	"strings"
	"unicode"
)

// Extractor finds stock mentions in news text using a Lexicon.
type Extractor struct {
	lexicon    *Lexicon
	prefixes   map[rune]struct{}
	suffixes   [][]rune
	shortNames [][]rune
}

func NewExtractor(lx *Lexicon) *Extractor {
	if lx == nil {
		lx = &Lexicon{CodePrefixes: []string{"0", "3", "6"}}
	}
	x := &Extractor{lexicon: lx, prefixes: map[rune]struct{}{}}
	for _, p := range lx.CodePrefixes {
		if r := []rune(p); len(r) == 1 {
			x.prefixes[r[0]] = struct{}{}
		}
	}
	for _, s := range lx.NameSuffixes {
		x.suffixes = append(x.suffixes, []rune(s))
	}
	for _, s := range lx.ShortNames {
		x.shortNames = append(x.shortNames, []rune(s))
	}
	return x
}

// IsPinned reports whether title or body carries a site-furniture phrase.
func (x *Extractor) IsPinned(title, body string) bool {
	for _, phrase := range x.lexicon.PinnedPhrases {
		if strings.Contains(title, phrase) || strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

// ExtractItem applies pinned filtering before extraction. Pinned items never carry references.
func (x *Extractor) ExtractItem(title, body string, links []LinkCandidate) ([]StockReference, bool) {
	if x.IsPinned(title, body) {
		return nil, true
	}
	return x.Extract(strings.TrimSpace(title+" "+body), links), false
}

// Extract returns linked references first, then text matches (codes,
// suffixed names, short names) that no link already represents.
func (x *Extractor) Extract(text string, links []LinkCandidate) []StockReference {
	refs := make([]StockReference, 0, len(links))
	represented := map[string]struct{}{}
	for _, l := range links {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		code := strings.TrimSpace(l.Code)
		refs = append(refs, StockReference{Kind: KindLinked, Value: name, StockCode: code, SourceURL: l.Href})
		represented[name] = struct{}{}
		if code != "" {
			represented[code] = struct{}{}
		}
	}

	add := func(ref StockReference) {
		if _, ok := represented[ref.Value]; ok {
			return
		}
		represented[ref.Value] = struct{}{}
		refs = append(refs, ref)
	}

	rs := []rune(text)
	for _, code := range x.matchCodes(rs) {
		add(StockReference{Kind: KindNumericCode, Value: code, StockCode: code})
	}
	for _, name := range x.matchNames(rs) {
		add(StockReference{Kind: KindNamePattern, Value: name})
	}
	for _, name := range x.matchShortNames(rs) {
		add(StockReference{Kind: KindShortName, Value: name})
	}
	return refs
}

// matchCodes finds word-bounded runs of exactly six ASCII digits with a listed leading digit.
func (x *Extractor) matchCodes(rs []rune) []string {
	var out []string
	for i := 0; i+6 <= len(rs); i++ {
		if i > 0 && isWordRune(rs[i-1]) {
			continue
		}
		if i+6 < len(rs) && isWordRune(rs[i+6]) {
			continue
		}
		if !allRunes(rs[i:i+6], isASCIIDigit) {
			continue
		}
		if _, ok := x.prefixes[rs[i]]; !ok {
			continue
		}
		out = append(out, string(rs[i:i+6]))
		i += 5
	}
	return out
}

// matchNames finds 2-4 Han characters followed by a suffix and a word boundary,
// trying the longest stem first at each position.
func (x *Extractor) matchNames(rs []rune) []string {
	var out []string
	for i := 0; i < len(rs); {
		end := -1
		for k := 4; k >= 2 && end < 0; k-- {
			if i+k > len(rs) || !allRunes(rs[i:i+k], isHan) {
				continue
			}
			end = matchAt(rs, i+k, x.suffixes)
		}
		if end < 0 {
			i++
			continue
		}
		out = append(out, string(rs[i:end]))
		i = end
	}
	return out
}

func (x *Extractor) matchShortNames(rs []rune) []string {
	var out []string
	for i := 0; i < len(rs); {
		end := -1
		if i == 0 || !isWordRune(rs[i-1]) {
			end = matchAt(rs, i, x.shortNames)
		}
		if end < 0 {
			i++
			continue
		}
		out = append(out, string(rs[i:end]))
		i = end
	}
	return out
}

// matchAt returns the end of the first word at pos that is followed by a word
// boundary, or -1.
func matchAt(rs []rune, pos int, words [][]rune) int {
	for _, w := range words {
		end := pos + len(w)
		if end > len(rs) {
			continue
		}
		if string(rs[pos:end]) != string(w) {
			continue
		}
		if end < len(rs) && isWordRune(rs[end]) {
			continue
		}
		return end
	}
	return -1
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHan(r rune) bool {
	return r >= '\u4e00' && r <= '\u9fa5'
}

func allRunes(rs []rune, pred func(rune) bool) bool {
	for _, r := range rs {
		if !pred(r) {
			return false
		}
	}
	return true
}
