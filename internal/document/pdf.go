package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// pageGap separates stacked OCR pages so their lines never share a row.
const pageGap = 40

var jpegMagic = []byte{0xff, 0xd8, 0xff}

// FromPDF reads a PDF. The text layer is laid out like plain text. A
// document without one is treated as a scan and its embedded JPEG page
// images are read with OCR, top to bottom.
func (l *Loader) FromPDF(ctx context.Context, name string, data []byte) (*ttypes.Document, error) {
	pages, err := pdfText(data)
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeDocument, "unable to read pdf", err).
			WithContext("source", name)
	}
	text := strings.Join(pages, "\n\n")
	if strings.TrimSpace(text) != "" {
		log.Debug("pdf text layer", "source", name, "pages", len(pages))
		if l.Clean {
			text = FilterOCR(text)
		}
		return Layout(name, text, l.Width), nil
	}

	if l.OCR == nil {
		return nil, tts.NewTTSError(tts.ErrorCodeOCR, "pdf has no text layer and OCR is off", nil).
			WithContext("source", name)
	}
	images := pageImages(data)
	if len(images) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeOCR, "pdf has no text layer or page images", nil).
			WithContext("source", name)
	}

	log.Info("pdf has no text layer, reading scans", "source", name, "images", len(images))
	doc := &ttypes.Document{Source: name}
	var offset float64
	for i, img := range images {
		page, err := l.OCR.FromImage(ctx, fmt.Sprintf("%s#%d", name, i+1), img)
		if err != nil {
			return nil, err
		}
		bottom := offset
		for j, w := range page.Words {
			b := page.Bounds[j]
			b.MaxY += offset
			bottom = max(bottom, b.MaxY)
			doc.Words = append(doc.Words, w)
			doc.Bounds = append(doc.Bounds, b)
		}
		offset = bottom + pageGap
	}
	return doc, nil
}

// pdfText returns the text of each page, one line per text row.
func pdfText(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		var sb strings.Builder
		for _, row := range rows {
			for _, t := range row.Content {
				sb.WriteString(t.S)
			}
			sb.WriteByte('\n')
		}
		pages = append(pages, sb.String())
	}
	return pages, nil
}

// pageImages returns the DCT encoded streams of a PDF. Those are plain
// JPEG files, which is how scanners store pages.
func pageImages(data []byte) [][]byte {
	var images [][]byte
	rest := data
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			return images
		}
		body := rest[i+len("stream"):]
		body = bytes.TrimPrefix(body, []byte("\r"))
		body = bytes.TrimPrefix(body, []byte("\n"))
		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			return images
		}
		if bytes.HasPrefix(body, jpegMagic) {
			images = append(images, bytes.TrimRight(body[:end], "\r\n"))
		}
		rest = body[end+len("endstream"):]
	}
}
