package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "uploads/1-file.pdf", want: "uploads/1-file.pdf"},
		{name: "simple prefix", prefix: "root", key: "uploads/1-file.pdf", want: "root/uploads/1-file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "uploads/1-file.pdf", want: "root/uploads/1-file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/uploads/1-file.pdf", want: "root/uploads/1-file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "uploads/1-file.pdf", want: "root/sub/uploads/1-file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestEscapeKeyPreservesSlashes(t *testing.T) {
	t.Parallel()

	got := escapeKey("uploads/1756-my report.pdf")
	want := "uploads/1756-my%20report.pdf"
	if got != want {
		t.Fatalf("escapeKey = %q, want %q", got, want)
	}
}

func TestURLIncludesRegion(t *testing.T) {
	t.Parallel()

	store := &Store{bucket: "docs", region: "us-east-1", prefix: ""}
	got := store.URL("uploads/1-file.pdf")
	want := "https://docs.s3.us-east-1.amazonaws.com/uploads/1-file.pdf"
	if got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}
