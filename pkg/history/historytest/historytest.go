// Package historytest provides a behavioral test suite that every
// history.Store implementation must pass.
package historytest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/history"
)

// Run executes the store contract against stores returned by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) history.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s history.Store)
	}{
		{"AppendAndLoad", testAppendAndLoad},
		{"LoadNotFound", testLoadNotFound},
		{"AppendExtends", testAppendExtends},
		{"StructuredTextRoundTrip", testStructuredText},
		{"NonTextParts", testNonTextParts},
		{"Delete", testDelete},
		{"List", testList},
		{"TenantIsolation", testTenantIsolation},
		{"ConcurrentAppend", testConcurrentAppend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func modelText(s string) history.Turn {
	return history.NewTurn(api.NewModelContent(api.NewTextPart(s)))
}

func texts(t *testing.T, turns []history.Turn) []string {
	t.Helper()
	out := make([]string, len(turns))
	for i, turn := range turns {
		text, ok := turn.Content.FirstText()
		if !ok {
			t.Fatalf("turn %d has no text", i)
		}
		out[i] = text
	}
	return out
}

func testAppendAndLoad(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	if err := s.Append(ctx, id, history.NewTurn(api.UserText("hello")), modelText("hi there")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(got))
	}
	if got[0].Role != api.RoleUser || got[1].Role != api.RoleModel {
		t.Errorf("roles = %q, %q; want user, model", got[0].Role, got[1].Role)
	}
	if want := []string{"hello", "hi there"}; !slices.Equal(texts(t, got), want) {
		t.Errorf("texts = %v, want %v", texts(t, got), want)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should survive storage")
	}
}

func testLoadNotFound(t *testing.T, s history.Store) {
	_, err := s.Load(context.Background(), "sess_missing")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testAppendExtends(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	for i := range 3 {
		if err := s.Append(ctx, id,
			history.NewTurn(api.UserText(fmt.Sprintf("q%d", i))),
			modelText(fmt.Sprintf("a%d", i)),
		); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"q0", "a0", "q1", "a1", "q2", "a2"}
	if !slices.Equal(texts(t, got), want) {
		t.Errorf("texts = %v, want %v", texts(t, got), want)
	}

	// Appending nothing is a no-op.
	if err := s.Append(ctx, id); err != nil {
		t.Errorf("empty Append failed: %v", err)
	}
}

func testStructuredText(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	const encoded = `{"name":"Ada","tags":["math","engines"]}`
	if err := s.Append(ctx, id, modelText(encoded)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text := texts(t, got)[0]; text != encoded {
		t.Errorf("text = %q, want %q", text, encoded)
	}
}

func testNonTextParts(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	turn := history.NewTurn(api.NewUserContent(
		api.NewTextPart("describe this"),
		api.NewBlobPart[string](api.MimeTypeImagePNG, []byte{0x89, 'P', 'N', 'G'}),
		api.NewFileDataPart[string](api.MimeTypePDF, "https://example.com/doc.pdf"),
	))
	if err := s.Append(ctx, id, turn); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	parts := got[0].Content.Parts
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(parts))
	}
	if parts[1].InlineData == nil || string(parts[1].InlineData.Data) != "\x89PNG" {
		t.Errorf("inline data lost: %+v", parts[1].InlineData)
	}
	if parts[2].FileData == nil || parts[2].FileData.FileURI != "https://example.com/doc.pdf" {
		t.Errorf("file data lost: %+v", parts[2].FileData)
	}
}

func testDelete(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	if err := s.Append(ctx, id, history.NewTurn(api.UserText("hello"))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testList(t *testing.T, s history.Store) {
	ctx := history.SetTenant(context.Background(), "list-"+api.NewSessionID())

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty list, got %v", ids)
	}

	first, second := api.NewSessionID(), api.NewSessionID()
	if err := s.Append(ctx, first, history.NewTurn(api.UserText("one"))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.Append(ctx, second, history.NewTurn(api.UserText("two"))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ids, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if want := []string{second, first}; !slices.Equal(ids, want) {
		t.Errorf("List = %v, want %v", ids, want)
	}
}

func testTenantIsolation(t *testing.T, s history.Store) {
	ctxA := history.SetTenant(context.Background(), "tenant-a")
	ctxB := history.SetTenant(context.Background(), "tenant-b")
	id := api.NewSessionID()

	if err := s.Append(ctxA, id, history.NewTurn(api.UserText("secret"))); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := s.Load(ctxB, id); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("tenant B should not see tenant A's session, got %v", err)
	}
	if err := s.Delete(ctxB, id); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("tenant B should not delete tenant A's session, got %v", err)
	}
	if _, err := s.Load(ctxA, id); err != nil {
		t.Errorf("tenant A lost its session: %v", err)
	}
}

func testConcurrentAppend(t *testing.T, s history.Store) {
	ctx := context.Background()
	id := api.NewSessionID()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn := history.NewTurn(api.UserText(fmt.Sprintf("w%d", i)))
			for {
				err := s.Append(ctx, id, turn)
				if errors.Is(err, history.ErrConflict) {
					continue
				}
				errs <- err
				return
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append failed: %v", err)
		}
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != writers {
		t.Errorf("len(turns) = %d, want %d", len(got), writers)
	}
}
