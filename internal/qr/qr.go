// Package qr renders ticket identifiers as QR code PNG files.
//
// Rendering parameters are fixed (error correction level L, 10 pixels per
// module, 4-module quiet zone) so the same identifier always produces a
// byte-identical file.
package qr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// ModulePixels is the edge length of one QR module in the PNG.
	ModulePixels = 10

	// Level is the error correction level.
	Level = qrcode.Low
)

// Renderer writes one PNG per identifier into Dir.
type Renderer struct {
	Dir string
}

// NewRenderer returns a Renderer for dir. The directory is created on the
// first Render call, not here.
func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

// Path returns the artifact path for id. It is stable for a given id and
// distinct for distinct ids.
func (r *Renderer) Path(id string) string {
	return filepath.Join(r.Dir, "ticket_"+id+".png")
}

// Render encodes id and writes it to Path(id), replacing any previous file
// atomically. It returns the written path.
func (r *Renderer) Render(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("render qr: invalid identifier %q", id)
	}

	png, err := Encode(id)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("render qr: create %s: %w", r.Dir, err)
	}
	path := r.Path(id)
	if err := atomic.WriteFile(path, bytes.NewReader(png)); err != nil {
		return "", fmt.Errorf("render qr: write %s: %w", path, err)
	}
	return path, nil
}

// Encode returns the PNG bytes for content without touching the filesystem.
func Encode(content string) ([]byte, error) {
	code, err := qrcode.New(content, Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	// go-qrcode treats a negative size as pixels per module rather than a
	// fixed image width.
	png, err := code.PNG(-ModulePixels)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return png, nil
}
