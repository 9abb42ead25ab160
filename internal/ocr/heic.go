package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func isHEIC(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".heic" || ext == ".heif"
}

// convertHEICtoPNG converts a HEIC/HEIF file to a temporary PNG using the chosen converter.
// converter: "magick" | "heif-convert" | "sips"
//
// Returns (outPath, cleanup, err). cleanup is never nil.
func convertHEICtoPNG(ctx context.Context, converter, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "labelscan-heic-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "label.png")

	var args []string
	switch converter {
	case "magick", "":
		converter = "magick"
		args = []string{in, out}
	case "heif-convert":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", cleanup, fmt.Errorf("HEIC not supported: converter must be one of magick | heif-convert | sips, got %q", converter)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, converter, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", cleanup, fmt.Errorf("%s failed: %w: %s", converter, err, strings.TrimSpace(stderr.String()))
	}

	if _, err := os.Stat(out); err != nil {
		return "", cleanup, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	return out, cleanup, nil
}
