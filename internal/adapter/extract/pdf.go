package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// Tools names the external binaries extraction shells out to. Zero-value
// fields fall back to the bare binary names resolved via PATH.
type Tools struct {
	Pdftotext string
	Pdfinfo   string
	Pdftoppm  string
	Tesseract string
}

func DefaultTools() Tools {
	return Tools{
		Pdftotext: "pdftotext",
		Pdfinfo:   "pdfinfo",
		Pdftoppm:  "pdftoppm",
		Tesseract: "tesseract",
	}
}

// PDFExtractor reads the embedded text layer of a PDF page by page using
// poppler's pdfinfo and pdftotext.
type PDFExtractor struct {
	runner Runner
	tools  Tools
}

func NewPDFExtractor(runner Runner, tools Tools) *PDFExtractor {
	return &PDFExtractor{runner: runner, tools: tools}
}

// Extract returns one ExtractedDoc per page that carries text. Pages whose
// extracted text is empty or whitespace-only are skipped. Document metadata
// from pdfinfo rides along on every page.
func (e *PDFExtractor) Extract(path string) ([]port.ExtractedDoc, error) {
	out, err := e.runner.Run(e.tools.Pdfinfo, path)
	if err != nil {
		return nil, fmt.Errorf("pdfinfo %s: %w", path, err)
	}
	meta, pages := parsePdfinfo(out)
	if pages <= 0 {
		return nil, fmt.Errorf("pdfinfo %s: no page count reported", path)
	}

	var docs []port.ExtractedDoc
	for p := 1; p <= pages; p++ {
		n := strconv.Itoa(p)
		text, err := e.runner.Run(e.tools.Pdftotext, "-f", n, "-l", n, "-layout", path, "-")
		if err != nil {
			return nil, fmt.Errorf("pdftotext %s page %d: %w", path, p, err)
		}
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		docs = append(docs, port.ExtractedDoc{
			Source:   path,
			FileName: filepath.Base(path),
			Page:     p,
			Section:  domain.SectionAll,
			Metadata: meta,
			Text:     string(text),
		})
	}
	return docs, nil
}

// parsePdfinfo reads pdfinfo's "Key: value" lines into a metadata map and
// pulls out the page count. pdfinfo output is flat text, so every value is
// scalar by construction; the Pages entry is consumed rather than stored.
func parsePdfinfo(out []byte) (map[string]string, int) {
	meta := make(map[string]string)
	pages := 0

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" || val == "" {
			continue
		}
		if key == "Pages" {
			if n, err := strconv.Atoi(val); err == nil {
				pages = n
			}
			continue
		}
		meta[key] = val
	}
	if len(meta) == 0 {
		meta = nil
	}
	return meta, pages
}
