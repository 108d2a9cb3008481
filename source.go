package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/spotlight/internal/document"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

var errMissingSource = errors.New("missing source: pass a file, - for stdin or --clipboard")

// source is where the document comes from. Files are read again on reload;
// stdin and the clipboard are read once.
type source struct {
	name string
	kind document.Kind
	data []byte
	path string
}

// sourceFromArgs resolves the command line into a source.
func sourceFromArgs(args []string, useClipboard bool, stdin io.Reader) (*source, error) {
	if useClipboard {
		if len(args) > 0 {
			return nil, errors.New("cannot use --clipboard with a source argument")
		}
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return &source{name: "clipboard", kind: document.KindText, data: []byte(text)}, nil
	}

	if len(args) == 0 || args[0] == "-" {
		if stdin == nil {
			return nil, errMissingSource
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read from reader: %w", err)
		}
		return &source{name: "stdin", kind: sniffKind(b), data: b}, nil
	}

	p, err := expandPath(args[0])
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", args[0])
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{name: filepath.Base(p), kind: document.KindOf(p), path: p}, nil
}

// sniffKind treats piped images as scans, PDFs as PDFs and everything else
// as text.
func sniffKind(b []byte) document.Kind {
	ct := http.DetectContentType(b)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return document.KindImage
	case ct == "application/pdf":
		return document.KindPDF
	}
	return document.KindText
}

// load reads the source into a document.
func (s *source) load(ctx context.Context, l *document.Loader) (*ttypes.Document, error) {
	var (
		doc *ttypes.Document
		err error
	)
	if s.path != "" {
		doc, err = l.LoadFile(ctx, s.path)
	} else {
		doc, err = l.Parse(ctx, s.name, s.kind, s.data)
	}
	if err != nil {
		return nil, err
	}
	doc.Source = s.name
	return doc, nil
}

// canReload reports whether the source can be read again.
func (s *source) canReload() bool {
	return s.path != ""
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// expandPath expands a leading ~ and environment variables.
func expandPath(path string) (string, error) {
	p, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return "", fmt.Errorf("unable to expand path %q: %w", path, err)
	}
	return p, nil
}
