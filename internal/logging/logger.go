// Package logging owns the program's log sinks. A Logger writes every record
// to the console and, optionally, to a log file; Reconfigure replaces the
// sink set and threshold while loggers handed out earlier keep working.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// Options selects the sinks and threshold applied by Reconfigure.
type Options struct {
	// Verbose is the number of times the verbose flag was given.
	Verbose int
	// LogFile, when set, names a file that log lines are appended to.
	LogFile *string
}

// LevelForVerbosity maps a verbose flag count to the minimum logged level.
func LevelForVerbosity(verbose int) slog.Level {
	switch {
	case verbose == 1:
		return slog.LevelInfo
	case verbose > 1:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

type sink struct {
	name string
	w    io.Writer
	// closer is nil for sinks the Logger does not own, such as stdout.
	closer io.Closer
}

// Logger is the process log state: a set of sinks and a threshold.
type Logger struct {
	mu     sync.Mutex
	stdout io.Writer
	sinks  []sink
	level  slog.LevelVar
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Logger with no sinks attached. Records are dropped until
// Reconfigure is called.
func New(stdout io.Writer) *Logger {
	l := &Logger{
		stdout: stdout,
		now:    timecache.CachedTime,
	}
	l.level.Set(slog.LevelWarn)
	l.logger = slog.New(&lineHandler{root: l})
	return l
}

// Slog returns a logger that writes through the current sink set.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Sinks returns the names of the attached sinks in write order.
func (l *Logger) Sinks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.sinks))
	for _, s := range l.sinks {
		names = append(names, s.name)
	}
	return names
}

// Reconfigure closes and detaches every sink, then attaches the console sink,
// the log file sink if opts.LogFile is set, and applies the verbosity level.
//
// If the log file cannot be opened the error is returned as is and the
// current sinks stay attached.
func (l *Logger) Reconfigure(opts Options) error {
	sinks := []sink{{name: "stdout", w: l.stdout}}
	if opts.LogFile != nil {
		f, err := os.OpenFile(*opts.LogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink{name: f.Name(), w: f, closer: f})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.closeLocked()
	l.sinks = sinks
	l.level.Set(LevelForVerbosity(opts.Verbose))
	return err
}

// Close flushes and detaches every sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closeLocked()
}

func (l *Logger) closeLocked() error {
	var errs []error
	for _, s := range l.sinks {
		if s.closer != nil {
			errs = append(errs, s.closer.Close())
		}
	}
	l.sinks = nil
	return errors.Join(errs...)
}

func (l *Logger) write(line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, s := range l.sinks {
		if _, err := s.w.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
