package gemini

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/provider"
)

// maxChunkSize bounds a single SSE line. Chunks with inline image or audio
// data exceed bufio's 64 KiB default.
const maxChunkSize = 16 << 20

// parseSSEStream reads streamGenerateContent SSE events from body and sends
// each payload on ch. The channel is NOT closed by this function; the caller
// is responsible for closing it.
//
// SSE format expected:
//
//	data: {"candidates":[...],"usageMetadata":{...}}\r\n
//	\r\n
//
// Each payload is a complete GenerateContentResponse. Malformed payloads
// are logged and skipped. An error envelope ends the stream with an error
// chunk. Context cancellation stops reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.StreamChunk) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkSize)

	send := func(c provider.StreamChunk) bool {
		select {
		case ch <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// Empty lines, comments (":") and other fields are ignored.
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" || payload == "[DONE]" {
			continue
		}

		if !gjson.Valid(payload) {
			slog.Warn("skipping malformed SSE chunk",
				"data", debug.Truncate(payload, 200),
			)
			continue
		}

		if gjson.Get(payload, "error").IsObject() {
			send(provider.StreamChunk{Err: streamError(payload)})
			return
		}

		debug.Log("stream", "chunk", "bytes", len(payload))
		if debug.TraceIsEnabled("stream") {
			debug.Raw("stream", payload)
		}

		if !send(provider.StreamChunk{Data: []byte(payload)}) {
			return
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		apiErr := api.NewTransportError(api.ErrorTypeServerError, "", "SSE stream read error")
		apiErr.Err = err
		send(provider.StreamChunk{Err: apiErr})
	}
}
