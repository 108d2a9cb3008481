package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/otiai10/gosseract/v2"

	"github.com/dgnsrekt/spotlight/internal/tts"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

// buildPDF writes a PDF whose objects are numbered from 1 in order, with a
// correct cross-reference table. Object 1 must be the catalog.
func buildPDF(objects ...string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func streamObject(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// textPDF has a single page that shows each line with its own text matrix.
func textPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&content, "1 0 0 1 72 %d Tm (%s) Tj\n", 720-20*i, line)
	}
	content.WriteString("ET")
	return buildPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		streamObject("", content.Bytes()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
}

var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 'p', 'a', 'g', 'e', 0xff, 0xd9}

// scannedPDF has one page per image and no text layer.
func scannedPDF(images ...[]byte) []byte {
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	var kids bytes.Buffer
	for i, img := range images {
		page := len(objects) + 1
		fmt.Fprintf(&kids, "%d 0 R ", page)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im0 %d 0 R >> >> /Contents %d 0 R >>", page+2, page+1),
			streamObject("", []byte("q 612 0 0 792 0 0 cm /Im0 Do Q")),
			streamObject(fmt.Sprintf("/Type /XObject /Subtype /Image /Width 10 /Height 10 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /DCTDecode /N %d", i), img),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), len(images))
	return buildPDF(objects...)
}

func TestKindOf_PDF(t *testing.T) {
	if got := KindOf("paper.PDF"); got != KindPDF {
		t.Errorf("KindOf = %s, want pdf", got)
	}
}

func TestLoader_PDFTextLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, textPDF("Hello there.", "Second line"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &Loader{Width: 80}
	doc, err := l.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if want := []string{"Hello", "there.", "Second", "line"}; !reflect.DeepEqual(doc.Words, want) {
		t.Errorf("Words = %q, want %q", doc.Words, want)
	}
	if doc.Bounds[2].MaxY <= doc.Bounds[0].MaxY {
		t.Errorf("second line should sit below the first: %v", doc.Bounds)
	}
}

func TestLoader_PDFScanned(t *testing.T) {
	second := append([]byte{}, fakeJPEG...)
	second[4] = 'q'

	var seen [][]byte
	o := NewOCR(OCRConfig{Languages: []string{"eng"}})
	o.recognize = func(img []byte, _ []string) ([]gosseract.BoundingBox, error) {
		seen = append(seen, img)
		if len(seen) == 1 {
			return []gosseract.BoundingBox{box("First", 10, 5, 60, 25, 90)}, nil
		}
		return []gosseract.BoundingBox{box("Second", 10, 5, 70, 25, 90)}, nil
	}

	l := &Loader{OCR: o}
	doc, err := l.Parse(context.Background(), "scan.pdf", KindPDF, scannedPDF(fakeJPEG, second))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(seen, [][]byte{fakeJPEG, second}) {
		t.Errorf("OCR saw %q", seen)
	}
	if !reflect.DeepEqual(doc.Words, []string{"First", "Second"}) {
		t.Errorf("Words = %q", doc.Words)
	}
	want := []ttypes.Rect{ttypes.NewRect(10, 60, 25), ttypes.NewRect(10, 70, 25+pageGap+25)}
	if !reflect.DeepEqual(doc.Bounds, want) {
		t.Errorf("Bounds = %v, want %v", doc.Bounds, want)
	}
}

func TestLoader_PDFErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		loader *Loader
		data   []byte
		want   tts.ErrorCode
	}{
		{"not a pdf", &Loader{}, []byte("%PDF-1.4\nnothing else"), tts.ErrorCodeDocument},
		{"scan without OCR", &Loader{}, scannedPDF(fakeJPEG), tts.ErrorCodeOCR},
		{"no text and no images", &Loader{OCR: NewOCR(OCRConfig{})}, scannedPDF(), tts.ErrorCodeOCR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.Parse(ctx, "doc.pdf", KindPDF, tt.data)
			if code := errorCode(t, err); code != tt.want {
				t.Errorf("Code = %s, want %s", code, tt.want)
			}
		})
	}
}

func TestPageImages(t *testing.T) {
	data := []byte("1 0 obj << >>\nstream\nq Q\nendstream\n2 0 obj << >>\nstream\r\n" + string(fakeJPEG) + "\r\nendstream\n")
	got := pageImages(data)
	if !reflect.DeepEqual(got, [][]byte{fakeJPEG}) {
		t.Errorf("pageImages = %q", got)
	}
}
