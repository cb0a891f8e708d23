package extract

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"docqa/internal/logger"
	"docqa/internal/port"
)

// DocExtractor dispatches each file to the extractor matching its extension.
// PDFs whose text layer yields nothing fall back to OCR when an OCRExtractor
// is configured.
type DocExtractor struct {
	pdf  *PDFExtractor
	ocr  *OCRExtractor
	text TextExtractor
}

// NewDocExtractor builds the dispatching extractor. ocr may be nil, which
// disables the OCR fallback.
func NewDocExtractor(pdf *PDFExtractor, ocr *OCRExtractor) *DocExtractor {
	return &DocExtractor{pdf: pdf, ocr: ocr}
}

func (e *DocExtractor) Extract(path string) ([]port.ExtractedDoc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		docs, err := e.pdf.Extract(path)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 && e.ocr != nil {
			logger.Infof("no text layer in %s, retrying with OCR", path)
			return e.ocr.Extract(path)
		}
		return docs, nil
	default:
		return e.text.Extract(path)
	}
}

// CheckAvailable reports whether the external binaries extraction needs are
// resolvable. OCR binaries are only checked when withOCR is set.
func CheckAvailable(tools Tools, withOCR bool) error {
	bins := []string{tools.Pdftotext, tools.Pdfinfo}
	if withOCR {
		bins = append(bins, tools.Pdftoppm, tools.Tesseract)
	}
	for _, bin := range bins {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found in PATH", bin)
		}
	}
	return nil
}

// InstallInstructions describes how to install the external tools.
func InstallInstructions() string {
	return `PDF extraction uses poppler (pdftotext, pdfinfo, pdftoppm); OCR additionally needs tesseract.

  macOS:          brew install poppler tesseract
  Debian/Ubuntu:  apt install poppler-utils tesseract-ocr
`
}
