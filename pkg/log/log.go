package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Color codes
const (
	reset      = "\033[0m"
	dim        = "\033[2m"
	green      = "\033[32m"
	yellow     = "\033[33m"
	blue       = "\033[34m"
	magenta    = "\033[35m"
	cyan       = "\033[36m"
	boldRed    = "\033[1;31m"
	boldGreen  = "\033[1;32m"
	boldYellow = "\033[1;33m"
)

// Emojis for different log types
const (
	infoEmoji    = "ℹ️ "
	successEmoji = "✅ "
	errorEmoji   = "❌ "
	warnEmoji    = "⚠️ "
	stepEmoji    = "👉 "
	debugEmoji   = "🔍 "
	prEmoji      = "🔄 "
	branchEmoji  = "🌿 "
	diffEmoji    = "📝 "
)

// Logger prints operator-facing console output and optionally mirrors every
// line into a structured transcript.
type Logger struct {
	debug bool
	out   io.Writer
	color bool

	mu         sync.Mutex
	transcript *slog.Logger
	closer     io.Closer
}

// Option configures a Logger.
type Option func(*Logger)

// WithWriter sends console output to w instead of stdout. Colour codes are
// only emitted when w is a terminal-backed *os.File.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
		l.color = isTerminal(w)
	}
}

// WithTranscript mirrors each console line as a JSON record into w. If w is
// also an io.Closer it is closed by Close.
func WithTranscript(w io.Writer) Option {
	return func(l *Logger) {
		if w == nil {
			return
		}
		l.transcript = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
		if c, ok := w.(io.Closer); ok {
			l.closer = c
		}
	}
}

// New creates a new logger instance
func New(debug bool, opts ...Option) *Logger {
	l := &Logger{
		debug: debug,
		out:   os.Stdout,
		color: isTerminal(os.Stdout),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(false, WithWriter(io.Discard))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// formatMessage adds padding and wraps long lines
func formatMessage(msg string) string {
	width := 80
	lines := strings.Split(msg, "\n")
	var formatted []string

	for _, line := range lines {
		if len(line) <= width {
			formatted = append(formatted, line)
			continue
		}

		words := strings.Fields(line)
		current := ""
		for _, word := range words {
			if len(current)+len(word)+1 > width {
				formatted = append(formatted, current)
				current = word
			} else {
				if current == "" {
					current = word
				} else {
					current += " " + word
				}
			}
		}
		if current != "" {
			formatted = append(formatted, current)
		}
	}

	return strings.Join(formatted, "\n")
}

func (l *Logger) print(level slog.Level, kind, color, emoji, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.color {
		fmt.Fprintf(l.out, "%s%s%s%s\n", color, emoji, formatMessage(msg), reset)
	} else {
		fmt.Fprintf(l.out, "%s%s\n", emoji, formatMessage(msg))
	}
	if l.transcript != nil {
		l.transcript.Log(context.Background(), level, msg, "kind", kind)
	}
}

// Info prints an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "info", blue, infoEmoji, format, args...)
}

// Success prints a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "success", boldGreen, successEmoji, format, args...)
}

// Error prints an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.print(slog.LevelError, "error", boldRed, errorEmoji, format, args...)
}

// Warning prints a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.print(slog.LevelWarn, "warning", boldYellow, warnEmoji, format, args...)
}

// Step prints a step message
func (l *Logger) Step(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "step", cyan, stepEmoji, format, args...)
}

// Debug prints a debug message if debug is enabled. The transcript always
// receives it.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		if l.transcript != nil {
			l.mu.Lock()
			l.transcript.Debug(fmt.Sprintf(format, args...), "kind", "debug")
			l.mu.Unlock()
		}
		return
	}
	l.print(slog.LevelDebug, "debug", dim, debugEmoji, format, args...)
}

// PR prints a PR-related message
func (l *Logger) PR(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "pr", magenta, prEmoji, format, args...)
}

// Branch prints a branch-related message
func (l *Logger) Branch(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "branch", green, branchEmoji, format, args...)
}

// Diff prints a diff-related message
func (l *Logger) Diff(format string, args ...interface{}) {
	l.print(slog.LevelInfo, "diff", yellow, diffEmoji, format, args...)
}

// Block prints a titled multi-line body verbatim. Only shown in debug mode
// since prompts and completions can be large.
func (l *Logger) Block(title, body string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.transcript != nil {
		l.transcript.Debug(title, "kind", "block", "body", body)
	}
	if !l.debug {
		return
	}
	fmt.Fprintf(l.out, "%s%s:\n", debugEmoji, title)
	fmt.Fprintln(l.out, strings.TrimRight(body, "\n"))
}

// Print writes plain output, e.g. tables, without decoration.
func (l *Logger) Print(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, s)
}

// Writer returns the console writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}

// IsDebug returns whether debug logging is enabled
func (l *Logger) IsDebug() bool {
	return l.debug
}

// Close releases the transcript sink, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
