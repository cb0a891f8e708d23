package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

const (
	DefaultOCRDPI      = 300
	DefaultOCRLanguage = "eng"
)

// OCRExtractor recovers text from PDFs without a usable text layer by
// rendering pages to images with pdftoppm and running tesseract over them.
// All page text is concatenated into a single document; page boundaries are
// not preserved.
type OCRExtractor struct {
	runner Runner
	tools  Tools
	dpi    int
	lang   string
}

func NewOCRExtractor(runner Runner, tools Tools, dpi int, lang string) *OCRExtractor {
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	if lang == "" {
		lang = DefaultOCRLanguage
	}
	return &OCRExtractor{runner: runner, tools: tools, dpi: dpi, lang: lang}
}

func (e *OCRExtractor) Extract(path string) ([]port.ExtractedDoc, error) {
	tmp, err := os.MkdirTemp("", "docqa-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	if _, err := e.runner.Run(e.tools.Pdftoppm, "-png", "-r", strconv.Itoa(e.dpi), path, prefix); err != nil {
		return nil, fmt.Errorf("pdftoppm %s: %w", path, err)
	}

	// pdftoppm zero-pads page numbers, so the lexical order is page order.
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm %s: no page images produced", path)
	}

	var b strings.Builder
	for _, img := range images {
		out, err := e.runner.Run(e.tools.Tesseract, img, "-", "-l", e.lang)
		if err != nil {
			return nil, fmt.Errorf("tesseract %s: %w", img, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(out)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []port.ExtractedDoc{{
		Source:   path,
		FileName: filepath.Base(path),
		Section:  domain.SectionOCR,
		Text:     text,
	}}, nil
}
