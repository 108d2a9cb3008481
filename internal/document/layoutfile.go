package document

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// layoutFile is a document whose words were positioned elsewhere, for
// example by an external recognizer.
//
//	source: page-12.png
//	words:
//	  - {text: Hello, min_x: 10, max_x: 52, max_y: 20}
//	  - {text: world., min_x: 60, max_x: 110, max_y: 20}
type layoutFile struct {
	Source string       `yaml:"source"`
	Words  []layoutWord `yaml:"words"`
}

type layoutWord struct {
	Text string  `yaml:"text"`
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// FromLayoutFile reads a YAML layout file. name is used when the file does
// not name its own source.
func FromLayoutFile(name string, r io.Reader) (*ttypes.Document, error) {
	var lf layoutFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil && err != io.EOF {
		return nil, tts.NewTTSError(tts.ErrorCodeDocument, "invalid layout file", err).
			WithContext("source", name)
	}

	doc := &ttypes.Document{Source: lf.Source}
	if doc.Source == "" {
		doc.Source = name
	}
	for i, w := range lf.Words {
		if w.Text == "" {
			return nil, tts.NewTTSError(tts.ErrorCodeDocument,
				fmt.Sprintf("word %d has no text", i), nil).WithContext("source", name)
		}
		if w.MaxX < w.MinX {
			return nil, tts.NewTTSError(tts.ErrorCodeDocument,
				fmt.Sprintf("word %d (%q) ends before it starts", i, w.Text), nil).WithContext("source", name)
		}
		doc.Words = append(doc.Words, w.Text)
		doc.Bounds = append(doc.Bounds, ttypes.NewRect(w.MinX, w.MaxX, w.MaxY))
	}
	return doc, nil
}
