// Package archive locates and extracts the conversations file from an
// exported chat archive: a ZIP (path or in-memory bytes), an unpacked
// directory, or a bare conversations.json.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// conversationsFile is the export's canonical conversations filename.
const conversationsFile = "conversations.json"

// FormatError reports input that does not look like a chat export.
// It is fatal to the run; per-conversation problems are not.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("not a recognizable chat export: %s", e.Reason)
}

// Extract reads the conversations JSON from path, which may be a ZIP
// archive, a directory containing an unpacked export, or the
// conversations.json file itself.
func Extract(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	if info.IsDir() {
		return extractDir(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return os.ReadFile(path)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("%s is neither a ZIP archive nor a JSON file", filepath.Base(path))}
	}
	defer r.Close()
	return extractZip(&r.Reader)
}

// ExtractBytes reads the conversations JSON from an in-memory ZIP, as
// received by the upload endpoint.
func ExtractBytes(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Reason: "upload is not a ZIP archive"}
	}
	return extractZip(r)
}

// extractZip finds conversations.json inside the archive. Exports
// sometimes nest everything under a top-level folder, so any path
// ending in the filename counts; the shortest candidate path wins so a
// root-level file beats a stray nested copy.
func extractZip(r *zip.Reader) ([]byte, error) {
	var candidates []*zip.File
	for _, f := range r.File {
		if filepath.Base(f.Name) == conversationsFile {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil, &FormatError{Reason: "archive contains no " + conversationsFile}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].Name) != len(candidates[j].Name) {
			return len(candidates[i].Name) < len(candidates[j].Name)
		}
		return candidates[i].Name < candidates[j].Name
	})

	rc, err := candidates[0].Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", candidates[0].Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func extractDir(dir string) ([]byte, error) {
	var candidates []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == conversationsFile {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(candidates) == 0 {
		return nil, &FormatError{Reason: "directory contains no " + conversationsFile}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return os.ReadFile(candidates[0])
}
