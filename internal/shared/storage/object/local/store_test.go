package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	size, mimeType, err := store.Save(context.Background(), "uploads/1-notes.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Fatalf("expected size %d, got %d", len("hello world"), size)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("expected text/plain mime, got %q", mimeType)
	}

	rc, err := store.Open(context.Background(), "uploads/1-notes.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "hello world" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSaveRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())

	if _, _, err := store.Save(context.Background(), "../escape.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, _, err := store.Save(context.Background(), "/abs/escape.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for absolute key")
	}
}

func TestURLIsFileScheme(t *testing.T) {
	store := New(t.TempDir())
	got := store.URL("uploads/1-notes.txt")
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "uploads/1-notes.txt") {
		t.Fatalf("unexpected URL %q", got)
	}
}
