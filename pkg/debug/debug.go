// Package debug provides category-based debug logging for the Gemini client.
//
// Categories select WHAT is logged (GEMINI_DEBUG or config), levels select
// HOW MUCH (GEMINI_LOG_LEVEL or config):
//
//	debug.Log("http", "request", "method", "POST", "url", url)
//	if debug.Enabled("stream") { /* expensive formatting */ }
//
// Categories: http, stream, schema, history, chat, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode/utf8"
)

// LevelTrace sits below slog.LevelDebug. Full request and response bodies
// are only written at this level.
const LevelTrace = slog.LevelDebug - 4

const (
	envCategories = "GEMINI_DEBUG"
	envLevel      = "GEMINI_LOG_LEVEL"
)

// categories is read-only after Init.
var categories map[string]bool

// rawOut receives Raw output.
var rawOut io.Writer = os.Stderr

func init() {
	categories = parseCategories(os.Getenv(envCategories))
}

// Options mirrors the logging section of the configuration file.
type Options struct {
	Categories string
	Level      string
	// Format is "text" (default) or "json".
	Format string
}

// Init installs the default slog logger. Environment variables take
// precedence over opts.
func Init(opts Options) {
	cats := os.Getenv(envCategories)
	if cats == "" {
		cats = opts.Categories
	}
	categories = parseCategories(cats)

	level := os.Getenv(envLevel)
	if level == "" {
		level = opts.Level
	}

	slog.SetDefault(slog.New(NewHandler(os.Stderr, opts.Format, ParseLevel(level))))
}

// NewHandler returns a text or JSON slog handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	ho := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category. It is a no-op when the
// category is disabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes text without slog formatting, for copy-paste-ready HTTP bodies.
// Only emitted when the category is enabled and the level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(rawOut, text)
}

// ParseLevel converts a level string to a slog.Level. Unknown values map to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Truncate shortens s to at most maxLen bytes without splitting a UTF-8
// sequence, appending "..." when anything was cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
