package document

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/otiai10/gosseract/v2"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

// OCRConfig configures the image loader.
type OCRConfig struct {
	// Languages are tesseract language codes tried together on the first
	// pass. Defaults to bul and eng.
	Languages []string

	// DataPath overrides tesseract's tessdata directory.
	DataPath string

	// MinConfidence drops words tesseract is less sure about (0-100).
	MinConfidence float64
}

// DefaultOCRConfig returns the default OCR configuration.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{Languages: []string{"bul", "eng"}}
}

// recognizeFunc returns word boxes for an encoded image.
type recognizeFunc func(image []byte, languages []string) ([]gosseract.BoundingBox, error)

// OCR turns page images into documents with pixel bounds.
type OCR struct {
	config    OCRConfig
	recognize recognizeFunc
}

// NewOCR creates an image loader backed by tesseract.
func NewOCR(config OCRConfig) *OCR {
	if len(config.Languages) == 0 {
		config.Languages = DefaultOCRConfig().Languages
	}
	o := &OCR{config: config}
	o.recognize = o.tesseract
	return o
}

func (o *OCR) tesseract(image []byte, languages []string) ([]gosseract.BoundingBox, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if o.config.DataPath != "" {
		if err := c.SetTessdataPrefix(o.config.DataPath); err != nil {
			return nil, fmt.Errorf("set tessdata path: %w", err)
		}
	}
	if err := c.SetLanguage(languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	return c.GetBoundingBoxes(gosseract.RIL_WORD)
}

// FromImage recognizes the words on an encoded page image. When the first
// pass reads as English and English was one of several languages, the page
// is read again in English alone, which avoids Cyrillic misreads.
func (o *OCR) FromImage(ctx context.Context, name string, image []byte) (*ttypes.Document, error) {
	boxes, err := o.pass(ctx, name, image, o.config.Languages)
	if err != nil {
		return nil, err
	}

	lang := words.DetectLanguage(joinBoxes(boxes))
	if lang == ttypes.LanguageEnglish && len(o.config.Languages) > 1 && slices.Contains(o.config.Languages, "eng") {
		log.Debug("ocr rereading page in english", "source", name)
		if boxes, err = o.pass(ctx, name, image, []string{"eng"}); err != nil {
			return nil, err
		}
	}

	doc := &ttypes.Document{Source: name}
	for _, b := range boxes {
		if b.Confidence < o.config.MinConfidence {
			continue
		}
		w := FilterWord(b.Word, lang)
		if w == "" {
			continue
		}
		doc.Words = append(doc.Words, w)
		doc.Bounds = append(doc.Bounds, ttypes.NewRect(float64(b.Box.Min.X), float64(b.Box.Max.X), float64(b.Box.Max.Y)))
	}
	log.Info("ocr finished", "source", name, "words", len(doc.Words), "language", lang)
	return doc, nil
}

func (o *OCR) pass(ctx context.Context, name string, image []byte, languages []string) ([]gosseract.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	boxes, err := o.recognize(image, languages)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeOCR, "text recognition failed", err).
			WithContext("source", name).
			WithContext("languages", strings.Join(languages, "+"))
	}
	return boxes, nil
}

func joinBoxes(boxes []gosseract.BoundingBox) string {
	ws := make([]string, 0, len(boxes))
	for _, b := range boxes {
		ws = append(ws, b.Word)
	}
	return strings.Join(ws, " ")
}
