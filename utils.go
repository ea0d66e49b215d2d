package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"reloverlay/internal/overlay"
)

// copyOverlay puts the relation layer's SVG on the system clipboard.
func copyOverlay(o *overlay.Overlay) error {
	var buf bytes.Buffer
	if err := o.Render(&buf); err != nil {
		return err
	}
	return clipboard.WriteAll(buf.String())
}

// withExtension appends ext unless name already ends with it.
func withExtension(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}

// baseName is name without directory or extension.
func baseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// extensionFor is the file extension an export writes.
func extensionFor(op FileOperation) string {
	switch op {
	case FileOpSaveSVG:
		return ".svg"
	case FileOpSavePNG:
		return ".png"
	case FileOpSaveVisualTXT:
		return ".txt"
	default:
		return ".hcl"
	}
}
