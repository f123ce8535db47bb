package news

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Lexicon holds the lookup sets used by the extractor.
type Lexicon struct {
	PinnedPhrases []string `yaml:"pinned_phrases"`
	CodePrefixes  []string `yaml:"code_prefixes"`
	NameSuffixes  []string `yaml:"name_suffixes"`
	ShortNames    []string `yaml:"short_names"`
}

func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexiconYAML)
}

// LoadLexicon reads a lexicon file; an empty path yields the embedded default.
func LoadLexicon(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLexicon()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(b)
}

func ParseLexicon(b []byte) (*Lexicon, error) {
	var lx Lexicon
	if err := yaml.Unmarshal(b, &lx); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lx.PinnedPhrases = compact(lx.PinnedPhrases)
	lx.CodePrefixes = compact(lx.CodePrefixes)
	lx.NameSuffixes = compact(lx.NameSuffixes)
	lx.ShortNames = compact(lx.ShortNames)
	if len(lx.CodePrefixes) == 0 {
		lx.CodePrefixes = []string{"0", "3", "6"}
	}
	return &lx, nil
}

// compact trims entries and drops blanks and repeats, keeping first-seen order.
func compact(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
