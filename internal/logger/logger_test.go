package logger

import (
	"testing"

	"boardwatch/internal/config"
)

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(config.LogConfig{Level: "chatty", Encoding: "json"})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if l.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at info level")
	}
	if !l.Core().Enabled(0) {
		t.Fatalf("info should be enabled")
	}
}

func TestForRun_NilBase(t *testing.T) {
	if ForRun(nil, "abc") == nil {
		t.Fatalf("expected non-nil logger")
	}
}
