package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("ranked sections", "ranked", 5)

	out := buf.String()
	for _, want := range []string{"ranked sections", "ranked=5", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestProgressFailed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.failed("pipeline failed", errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("failure logged at info level: %q", buf.String())
	}

	prog = newProgress(newLogger(&buf, log.DebugLevel))
	prog.failed("pipeline failed", errors.New("boom"))
	if out := buf.String(); !strings.Contains(out, "DEBU") || !strings.Contains(out, "boom") {
		t.Errorf("output = %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}
