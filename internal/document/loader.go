package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// Kind is how a source is turned into words.
type Kind int

const (
	KindText Kind = iota
	KindMarkdown
	KindLayout
	KindImage
	KindPDF
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMarkdown:
		return "markdown"
	case KindLayout:
		return "layout"
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp", ".pnm"}

// KindOf picks a kind from a file name.
func KindOf(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown", ".mdown", ".mkd":
		return KindMarkdown
	case ".yml", ".yaml":
		return KindLayout
	case ".pdf":
		return KindPDF
	}
	if slices.Contains(imageExtensions, ext) {
		return KindImage
	}
	return KindText
}

// Loader turns files and raw input into documents.
type Loader struct {
	// OCR reads image sources and scanned PDFs. Images are rejected when
	// nil.
	OCR *OCR

	// Width is the wrap width for text sources.
	Width int

	// Clean runs FilterOCR over plain text, for text exported by scanner
	// software.
	Clean bool
}

// LoadFile reads and parses the file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*ttypes.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	return l.Parse(ctx, path, KindOf(path), data)
}

// Parse turns data of the given kind into a document named name.
func (l *Loader) Parse(ctx context.Context, name string, kind Kind, data []byte) (*ttypes.Document, error) {
	log.Debug("loading document", "source", name, "kind", kind, "bytes", len(data))

	switch kind {
	case KindImage:
		if l.OCR == nil {
			return nil, tts.NewTTSError(tts.ErrorCodeOCR, "image sources need OCR", nil).
				WithContext("source", name)
		}
		return l.OCR.FromImage(ctx, name, data)

	case KindLayout:
		return FromLayoutFile(name, bytes.NewReader(data))

	case KindPDF:
		return l.FromPDF(ctx, name, data)
	}

	if !utf8.Valid(data) {
		return nil, tts.NewTTSError(tts.ErrorCodeDocument, "source is not UTF-8 text", nil).
			WithContext("source", name)
	}
	text := string(data)
	switch {
	case kind == KindMarkdown:
		text = StripMarkdown(text)
	case l.Clean:
		text = FilterOCR(text)
	}
	return Layout(name, text, l.Width), nil
}
