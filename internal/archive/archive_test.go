package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"conversations.json": `[]`,
		"user.json":          `{}`,
	})
	got, err := ExtractBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractBytesNestedShortestWins(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"export/deep/conversations.json": `["nested"]`,
		"export/conversations.json":      `["top"]`,
	})
	got, err := ExtractBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `["top"]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractBytesNotZip(t *testing.T) {
	_, err := ExtractBytes([]byte("plain text"))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestExtractBytesMissingConversations(t *testing.T) {
	data := zipBytes(t, map[string]string{"user.json": `{}`})
	_, err := ExtractBytes(data)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError, got %v", err)
	}
}

func TestExtractZipFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.zip")
	data := zipBytes(t, map[string]string{"conversations.json": `[1]`})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[1]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "export")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "conversations.json"), []byte(`[2]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Extract(dir)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[2]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractBareJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conversations.json")
	if err := os.WriteFile(path, []byte(`[3]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[3]` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractNotArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.bin")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Extract(path)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want FormatError, got %v", err)
	}
}
