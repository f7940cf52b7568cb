// Command gemini sends prompts to the Gemini generateContent API.
//
// Usage:
//
//	gemini -prompt "Why is the sky blue?"
//	echo "Summarize this" | gemini -stream
//	gemini -session work -prompt "And in French?"
//	gemini -json-schema person.schema.json -prompt "Invent a person"
//	gemini -list-models
//
// Configuration is read from a YAML file (see -config) and environment
// variables; GEMINI_API_KEY is required.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/chat"
	"github.com/rhuss/gemini-go/pkg/config"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/history"
	"github.com/rhuss/gemini-go/pkg/history/memory"
	"github.com/rhuss/gemini-go/pkg/history/postgres"
	"github.com/rhuss/gemini-go/pkg/observability"
	"github.com/rhuss/gemini-go/pkg/provider"
	"github.com/rhuss/gemini-go/pkg/provider/gemini"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	prompt      string
	system      string
	model       string
	session     string
	stream      bool
	jsonSchema  string
	metricsAddr string
	listModels  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		slog.Error("gemini failed", "error", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage error")

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("gemini", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to the YAML configuration file")
	fs.StringVar(&opts.prompt, "prompt", "", "prompt text (read from stdin when empty)")
	fs.StringVar(&opts.system, "system", "", "system instruction")
	fs.StringVar(&opts.model, "model", "", "model name (overrides configuration)")
	fs.StringVar(&opts.session, "session", "", "conversation session ID; keeps history across calls")
	fs.BoolVar(&opts.stream, "stream", false, "stream the answer as it is generated")
	fs.StringVar(&opts.jsonSchema, "json-schema", "", "path to a JSON Schema document the answer must follow")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.BoolVar(&opts.listModels, "list-models", false, "list available models and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		if opts.prompt != "" {
			return opts, fmt.Errorf("%w: prompt given both as -prompt and argument", errUsage)
		}
		opts.prompt = strings.Join(fs.Args(), " ")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})
	if opts.model != "" {
		cfg.Gemini.Model = opts.model
	}
	if opts.metricsAddr != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Addr = opts.metricsAddr
	}
	slog.Debug("configuration loaded", "gemini", cfg.Gemini, "history_backend", cfg.History.Backend)

	if cfg.Observability.Metrics.Enabled {
		shutdown := serveMetrics(cfg.Observability.Metrics)
		defer shutdown()
	}

	prov, err := gemini.New(gemini.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  cfg.Gemini.APIKey,
		Timeout: cfg.Gemini.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer prov.Close()

	if opts.listModels {
		return printModels(ctx, prov, stdout)
	}

	prompt, err := readPrompt(opts.prompt, stdin)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.History, opts.session != "")
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.jsonSchema != "" {
		doc, err := loadJSONSchema(opts.jsonSchema)
		if err != nil {
			return err
		}
		genCfg, err := api.WithJSONSchemaDocument[json.RawMessage](api.NewGenerationConfigBuilder[string](), doc).Build()
		if err != nil {
			return err
		}
		return converse(ctx, prov, store, cfg, opts, genCfg, prompt, stdout, printJSON)
	}
	return converse(ctx, prov, store, cfg, opts, nil, prompt, stdout, printText)
}

// converse sends one user turn through a chat session and prints the answer.
func converse[T any](
	ctx context.Context,
	prov provider.Provider,
	store history.Store,
	cfg *config.Config,
	opts options,
	genCfg *api.GenerationConfig[T],
	prompt string,
	stdout io.Writer,
	show func(io.Writer, T) error,
) error {
	chatCfg := chat.Config[T]{
		Model:            cfg.Gemini.Model,
		GenerationConfig: genCfg,
		MaxTurns:         cfg.History.MaxTurns,
	}
	if opts.system != "" {
		chatCfg.SystemInstruction = []api.Part[string]{api.NewTextPart(opts.system)}
	}

	sess, err := chat.New(prov, store, opts.session, chatCfg)
	if err != nil {
		return err
	}

	if !opts.stream {
		resp, err := sess.Send(ctx, api.NewTextPart(prompt))
		if err != nil {
			return err
		}
		logUsage(resp.UsageMetadata)
		if resp.Blocked() {
			return fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		answer, ok := resp.FirstText()
		if !ok {
			return errors.New("response carries no text")
		}
		return show(stdout, answer)
	}

	results, err := sess.SendStream(ctx, api.NewTextPart(prompt))
	if err != nil {
		return err
	}
	for r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintln(stdout)
			return r.Err
		case r.Chunk != nil:
			if text, ok := r.Chunk.FirstText(); ok {
				fmt.Fprint(stdout, text)
			}
		case r.Final != nil:
			fmt.Fprintln(stdout)
			logUsage(r.Final.UsageMetadata)
		}
	}
	return ctx.Err()
}

func printText(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

func printJSON(w io.Writer, v json.RawMessage) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printModels(ctx context.Context, prov provider.Provider, w io.Writer) error {
	models, err := prov.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		name := strings.TrimPrefix(m.Name, "models/")
		if m.DisplayName != "" {
			fmt.Fprintf(w, "%-40s %s\n", name, m.DisplayName)
		} else {
			fmt.Fprintln(w, name)
		}
	}
	return nil
}

func logUsage(u *api.UsageMetadata) {
	prompt, candidates, total := u.Tokens()
	slog.Debug("token usage", "prompt", prompt, "candidates", candidates, "total", total)
}

func readPrompt(flagValue string, stdin io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("%w: no prompt given", errUsage)
	}
	return prompt, nil
}

func loadJSONSchema(path string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON Schema: %w", err)
	}
	var doc jsonschema.Schema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON Schema %s: %w", path, err)
	}
	return &doc, nil
}

// openStore creates the configured history backend. Without a session the
// exchange is not kept, so a single-slot memory store suffices.
func openStore(ctx context.Context, cfg config.HistoryConfig, persistent bool) (history.Store, error) {
	if !persistent {
		return memory.New(1), nil
	}

	switch cfg.Backend {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres history: %w", err)
		}
		slog.Debug("history enabled", "backend", "postgres", "postgres", cfg.Postgres)
		return store, nil
	default:
		slog.Warn("memory history does not outlive the process; use the postgres backend to resume sessions")
		return memory.New(cfg.MaxSessions), nil
	}
}

// serveMetrics starts the Prometheus endpoint and returns a function that
// stops it.
func serveMetrics(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle("GET "+cfg.Path, observability.Handler())

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics endpoint starting", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
