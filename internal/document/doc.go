// Package document turns sources into positioned words. Plain text and
// markdown are laid out on a cell grid, as is the text layer of a PDF.
// Layout files carry their own boxes and page images are read with
// tesseract.
package document
