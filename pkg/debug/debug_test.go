package debug

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "http", map[string]bool{"http": true}},
		{"multiple", "http,schema", map[string]bool{"http": true, "schema": true}},
		{"all", "all", map[string]bool{"all": true}},
		{"with spaces", " http , stream ", map[string]bool{"http": true, "stream": true}},
		{"uppercase normalized", "HTTP,Stream", map[string]bool{"http": true, "stream": true}},
		{"empty segments", "http,,history", map[string]bool{"http": true, "history": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseCategories(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("http,schema")

	if !Enabled("http") {
		t.Error("http should be enabled")
	}
	if !Enabled("schema") {
		t.Error("schema should be enabled")
	}
	if Enabled("history") {
		t.Error("history should not be enabled")
	}
	if Enabled("all") {
		t.Error("all should not be enabled (not in categories)")
	}
}

func TestEnabled_All(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("all")

	for _, c := range []string{"http", "stream", "anything"} {
		if !Enabled(c) {
			t.Errorf("%s should be enabled via 'all'", c)
		}
	}
}

func TestCategories_Sorted(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("stream,config,http")

	want := []string{"config", "http", "stream"}
	if diff := cmp.Diff(want, Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is a ..."},
		{"héllo", 2, "h..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestNewHandler_JSONTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", LevelTrace))
	logger.Log(t.Context(), LevelTrace, "body", "bytes", 12)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}
}

func TestNewHandler_TextFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", slog.LevelInfo))
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info record missing, got %q", out)
	}
}

func TestRaw_RequiresTrace(t *testing.T) {
	origCats, origOut, origLogger := categories, rawOut, slog.Default()
	defer func() {
		categories, rawOut = origCats, origOut
		slog.SetDefault(origLogger)
	}()

	var buf bytes.Buffer
	rawOut = &buf
	categories = parseCategories("http")

	slog.SetDefault(slog.New(NewHandler(&bytes.Buffer{}, "text", slog.LevelDebug)))
	Raw("http", "at debug")
	if buf.Len() != 0 {
		t.Errorf("Raw wrote at DEBUG level: %q", buf.String())
	}

	slog.SetDefault(slog.New(NewHandler(&bytes.Buffer{}, "text", LevelTrace)))
	Raw("http", "at trace")
	if got := buf.String(); got != "at trace\n" {
		t.Errorf("Raw output = %q, want %q", got, "at trace\n")
	}
}

func TestLog_DisabledCategory(t *testing.T) {
	orig := categories
	defer func() { categories = orig }()

	categories = parseCategories("")

	Log("http", "test message", "key", "value")
	Trace("http", "trace message", "key", "value")
}
