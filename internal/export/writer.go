package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boardwatch/internal/config"
	"boardwatch/internal/news"
)

// Writer persists run artifacts as indented JSON files under Dir.
type Writer struct {
	Dir         string
	BoardFile   string
	HistoryFile string
	NewsFile    string
}

func NewWriter(cfg config.ExportConfig) *Writer {
	w := &Writer{
		Dir:         strings.TrimSpace(cfg.Dir),
		BoardFile:   strings.TrimSpace(cfg.BoardFile),
		HistoryFile: strings.TrimSpace(cfg.HistoryFile),
		NewsFile:    strings.TrimSpace(cfg.NewsFile),
	}
	if w.Dir == "" {
		w.Dir = "."
	}
	if w.BoardFile == "" {
		w.BoardFile = "board_latest.json"
	}
	if w.HistoryFile == "" {
		w.HistoryFile = "board_history.json"
	}
	if w.NewsFile == "" {
		w.NewsFile = "news_latest.json"
	}
	return w
}

func (w *Writer) WriteBoard(a BoardArtifact) (string, error) {
	if a.TopNEntries == nil {
		a.TopNEntries = []BoardRow{}
	}
	return w.write(w.BoardFile, a)
}

func (w *Writer) WriteHistory(a HistoryArtifact) (string, error) {
	return w.write(w.HistoryFile, a)
}

// WriteNews writes the list as-is; a nil list is written as [].
func (w *Writer) WriteNews(items []news.Item) (string, error) {
	if items == nil {
		items = []news.Item{}
	}
	return w.write(w.NewsFile, items)
}

// write replaces the target through a temp file in the same directory so
// readers never observe a partial artifact.
func (w *Writer) write(name string, v any) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(w.Dir, name)
	tmp, err := os.CreateTemp(w.Dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}
