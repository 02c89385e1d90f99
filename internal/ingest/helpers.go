package ingest

import (
	"path/filepath"
	"strings"
)

// orDefault returns v unless it is empty.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// cleanFileName keeps only the base name of an uploaded file.
func cleanFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Base(strings.ReplaceAll(name, "\\", "/"))
}
