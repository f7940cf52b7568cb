package gemini

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/provider"
)

// collectChunks runs parseSSEStream and returns all chunks.
func collectChunks(t *testing.T, ctx context.Context, body io.Reader) []provider.StreamChunk {
	t.Helper()
	ch := make(chan provider.StreamChunk, 64)

	go func() {
		defer close(ch)
		parseSSEStream(ctx, body, ch)
	}()

	var chunks []provider.StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	return chunks
}

func TestParseSSEStream_Chunks(t *testing.T) {
	sseData := ": keep-alive\r\n" +
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\r\n\r\n" +
		"event: message\n" +
		"data:{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}]}\n\n"

	chunks := collectChunks(t, context.Background(), strings.NewReader(sseData))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	for i, want := range []string{
		`{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"b"}]}}]}`,
	} {
		if chunks[i].Err != nil || string(chunks[i].Data) != want {
			t.Errorf("chunk %d = %+v, want %s", i, chunks[i], want)
		}
	}
}

func TestParseSSEStream_SkipsMalformed(t *testing.T) {
	sseData := "data: {not json\n\n" +
		"data: {\"candidates\":[]}\n\n" +
		"data: [DONE]\n\n"

	chunks := collectChunks(t, context.Background(), strings.NewReader(sseData))

	if len(chunks) != 1 || string(chunks[0].Data) != `{"candidates":[]}` {
		t.Errorf("chunks = %+v, want only the valid payload", chunks)
	}
}

func TestParseSSEStream_ErrorEnvelope(t *testing.T) {
	sseData := "data: {\"candidates\":[]}\n\n" +
		"data: {\"error\":{\"code\":500,\"message\":\"An internal error has occurred.\",\"status\":\"INTERNAL\"}}\n\n" +
		"data: {\"candidates\":[]}\n\n"

	chunks := collectChunks(t, context.Background(), strings.NewReader(sseData))

	if len(chunks) != 2 {
		t.Fatalf("expected data + error, got %d: %+v", len(chunks), chunks)
	}
	if !errors.Is(chunks[1].Err, api.ErrServer) {
		t.Errorf("chunks[1].Err = %v, want ErrServer", chunks[1].Err)
	}
	apiErr, _ := api.AsAPIError(chunks[1].Err)
	if apiErr.Code != "INTERNAL" || apiErr.Message != "An internal error has occurred." {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

type failingReader struct{ data io.Reader }

func (r *failingReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if err == io.EOF {
		return n, errors.New("connection reset by peer")
	}
	return n, err
}

func TestParseSSEStream_ReadError(t *testing.T) {
	body := &failingReader{data: strings.NewReader("data: {\"candidates\":[]}\n\n")}

	chunks := collectChunks(t, context.Background(), body)

	if len(chunks) != 2 {
		t.Fatalf("expected data + error, got %d: %+v", len(chunks), chunks)
	}
	if !errors.Is(chunks[1].Err, api.ErrServer) {
		t.Errorf("chunks[1].Err = %v, want ErrServer", chunks[1].Err)
	}
}

func TestParseSSEStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks := collectChunks(t, ctx, strings.NewReader("data: {}\n\ndata: {}\n\n"))
	for _, c := range chunks {
		if c.Err != nil {
			t.Errorf("cancellation surfaced as error: %v", c.Err)
		}
	}
	if len(chunks) > 0 {
		t.Errorf("got %d chunks after cancellation, want 0", len(chunks))
	}
}

func TestParseSSEStream_LargeChunk(t *testing.T) {
	big := strings.Repeat("x", 200*1024)
	sseData := "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"" + big + "\"}]}}]}\n\n"

	chunks := collectChunks(t, context.Background(), strings.NewReader(sseData))
	if len(chunks) != 1 || chunks[0].Err != nil {
		t.Fatalf("chunks = %d, want one data chunk", len(chunks))
	}
}
