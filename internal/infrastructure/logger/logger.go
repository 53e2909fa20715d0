package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

var levelColors = []struct {
	token string
	color string
}{
	{"level=DEBUG", colorCyan},
	{"level=INFO", colorGreen},
	{"level=WARN", colorYellow},
	{"level=ERROR", colorRed},
}

// colorWriter wraps an io.Writer and adds color codes around the level string.
type colorWriter struct {
	writer  io.Writer
	enabled bool
}

func (cw *colorWriter) Write(p []byte) (int, error) {
	if !cw.enabled {
		return cw.writer.Write(p)
	}

	text := string(p)
	for _, lc := range levelColors {
		text = strings.ReplaceAll(text, lc.token, lc.color+lc.token+colorReset)
	}

	_, err := cw.writer.Write([]byte(text))
	return len(p), err
}

// isTerminal checks if the writer is a character device.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// New builds the service logger on stdout.
func New(appName, level, environment string) *slog.Logger {
	return NewWithWriter(os.Stdout, appName, level, environment)
}

// NewWithWriter builds a structured slog logger honoring the configured level and environment.
// Development environments (local, dev, development) get text output, colored on a terminal.
// Every other environment gets JSON.
func NewWithWriter(w io.Writer, appName, level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	if isDevelopment(environment) {
		handler = slog.NewTextHandler(&colorWriter{writer: w, enabled: isTerminal(w)}, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("app", appName)
}

func isDevelopment(environment string) bool {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development":
		return true
	}
	return false
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
