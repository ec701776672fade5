package logging

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixedTime = time.Date(2024, time.May, 1, 12, 30, 45, 123456789, time.UTC)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = func() time.Time { return fixedTime }
	return l, &buf
}

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		verbose int
		want    slog.Level
	}{
		{verbose: -1, want: slog.LevelWarn},
		{verbose: 0, want: slog.LevelWarn},
		{verbose: 1, want: slog.LevelInfo},
		{verbose: 2, want: slog.LevelDebug},
		{verbose: 5, want: slog.LevelDebug},
	}

	for _, tt := range tests {
		if got := LevelForVerbosity(tt.verbose); got != tt.want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", tt.verbose, got, tt.want)
		}
	}
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger()
	if err := l.Reconfigure(Options{Verbose: 2}); err != nil {
		t.Fatalf("Reconfigure() failed: %v", err)
	}

	log := l.Slog()
	log.Debug("debug message")
	log.Info("info message", "path", "/tmp/a b.conf")
	log.Warn("warn message", "count", 3)
	log.Error("error message", slog.Group("req", "id", "x1"))
	log.With("component", "store").WithGroup("cfg").Info("grouped", "key", "v")

	want := strings.Join([]string{
		"2024-05-01 12:30:45 [DEBUG   ] debug message",
		`2024-05-01 12:30:45 [INFO    ] info message path="/tmp/a b.conf"`,
		"2024-05-01 12:30:45 [WARNING ] warn message count=3",
		"2024-05-01 12:30:45 [ERROR   ] error message req.id=x1",
		"2024-05-01 12:30:45 [INFO    ] grouped component=store cfg.key=v",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestLogger_Threshold(t *testing.T) {
	tests := []struct {
		name    string
		verbose int
		want    []string
	}{
		{name: "default", verbose: 0, want: []string{"WARNING", "ERROR"}},
		{name: "verbose", verbose: 1, want: []string{"INFO", "WARNING", "ERROR"}},
		{name: "very verbose", verbose: 2, want: []string{"DEBUG", "INFO", "WARNING", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newTestLogger()
			if err := l.Reconfigure(Options{Verbose: tt.verbose}); err != nil {
				t.Fatalf("Reconfigure() failed: %v", err)
			}
			log := l.Slog()
			log.Debug("m")
			log.Info("m")
			log.Warn("m")
			log.Error("m")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				start, end := strings.Index(line, "["), strings.Index(line, "]")
				got = append(got, strings.TrimSpace(line[start+1:end]))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("logged levels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogger_ReconfigureIsIdempotent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	l, buf := newTestLogger()

	for i := 0; i < 3; i++ {
		if err := l.Reconfigure(Options{LogFile: &logFile}); err != nil {
			t.Fatalf("Reconfigure() #%d failed: %v", i, err)
		}
	}
	if diff := cmp.Diff([]string{"stdout", logFile}, l.Sinks()); diff != "" {
		t.Errorf("Sinks() mismatch (-want +got):\n%s", diff)
	}

	l.Slog().Warn("once")
	if n := strings.Count(buf.String(), "once"); n != 1 {
		t.Errorf("expected one console line, got %d", n)
	}

	if err := l.Reconfigure(Options{}); err != nil {
		t.Fatalf("Reconfigure() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"stdout"}, l.Sinks()); diff != "" {
		t.Errorf("Sinks() after dropping log file mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "once"); n != 1 {
		t.Errorf("expected one file line, got %d", n)
	}
}

func TestLogger_FileSinkAppends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(logFile, []byte("existing line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, _ := newTestLogger()
	if err := l.Reconfigure(Options{LogFile: &logFile}); err != nil {
		t.Fatalf("Reconfigure() failed: %v", err)
	}
	l.Slog().Warn("appended")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	want := "existing line\n2024-05-01 12:30:45 [WARNING ] appended\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("log file mismatch (-want +got):\n%s", diff)
	}
	if len(l.Sinks()) != 0 {
		t.Errorf("expected no sinks after Close(), got %v", l.Sinks())
	}
}

func TestLogger_UnwritableLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "missing", "app.log")
	l, _ := newTestLogger()
	if err := l.Reconfigure(Options{Verbose: 1}); err != nil {
		t.Fatalf("Reconfigure() failed: %v", err)
	}

	err := l.Reconfigure(Options{Verbose: 2, LogFile: &logFile})
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected *fs.PathError, got %T: %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if diff := cmp.Diff([]string{"stdout"}, l.Sinks()); diff != "" {
		t.Errorf("sinks changed after failure (-want +got):\n%s", diff)
	}
	if l.Level() != slog.LevelInfo {
		t.Errorf("level changed after failure: %v", l.Level())
	}
}

func TestLogger_EarlierLoggerFollowsReconfigure(t *testing.T) {
	var first, second bytes.Buffer
	l := New(&first)
	l.now = func() time.Time { return fixedTime }
	log := l.Slog()

	log.Warn("dropped")
	if first.Len() != 0 {
		t.Errorf("expected no output before Reconfigure(), got %q", first.String())
	}

	if err := l.Reconfigure(Options{}); err != nil {
		t.Fatal(err)
	}
	log.Warn("to first")

	l.stdout = &second
	if err := l.Reconfigure(Options{}); err != nil {
		t.Fatal(err)
	}
	log.Warn("to second")

	if strings.Contains(first.String(), "to second") || !strings.Contains(first.String(), "to first") {
		t.Errorf("unexpected first output: %q", first.String())
	}
	if !strings.Contains(second.String(), "to second") {
		t.Errorf("unexpected second output: %q", second.String())
	}
}
