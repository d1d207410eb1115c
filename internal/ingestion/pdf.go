package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PDFResult is the text and document information of a PDF.
type PDFResult struct {
	Filename      string      `json:"filename"`
	PageCount     int         `json:"page_count"`
	TextLength    int         `json:"text_length"`
	ExtractedText string      `json:"extracted_text"`
	Metadata      PDFMetadata `json:"metadata"`
}

// PDFMetadata is the document information dictionary.
type PDFMetadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Creator      string `json:"creator"`
	CreationDate string `json:"creation_date"`
}

// PDFExtractor shells out to poppler-utils. Empty tool names use the defaults
// found on PATH.
type PDFExtractor struct {
	PdfToText string
	PdfInfo   string
}

// ExtractPDF extracts text and metadata from the PDF at path with the default tools.
func ExtractPDF(ctx context.Context, path string) (*PDFResult, error) {
	return PDFExtractor{}.Extract(ctx, path)
}

// Extract runs pdfinfo for page count and metadata, then pdftotext for the body.
func (x PDFExtractor) Extract(ctx context.Context, path string) (*PDFResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ExtractError{Path: path, Message: "file not accessible", Cause: err}
	}

	info, err := x.run(ctx, x.pdfinfo(), "-enc", "UTF-8", path)
	if err != nil {
		return nil, &ExtractError{Path: path, Message: "pdfinfo failed; is poppler-utils installed?", Cause: err}
	}
	pages, meta, err := parsePDFInfo(info)
	if err != nil {
		return nil, &ExtractError{Path: path, Message: "unreadable pdfinfo output", Cause: err}
	}

	raw, err := x.run(ctx, x.pdftotext(), "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, &ExtractError{Path: path, Message: "pdftotext failed", Cause: err}
	}
	text := strings.ReplaceAll(string(raw), "\f", "")

	return &PDFResult{
		Filename:      filepath.Base(path),
		PageCount:     pages,
		TextLength:    utf8.RuneCountInString(text),
		ExtractedText: text,
		Metadata:      meta,
	}, nil
}

func (x PDFExtractor) pdftotext() string {
	if x.PdfToText != "" {
		return x.PdfToText
	}
	return "pdftotext"
}

func (x PDFExtractor) pdfinfo() string {
	if x.PdfInfo != "" {
		return x.PdfInfo
	}
	return "pdfinfo"
}

func (x PDFExtractor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// parsePDFInfo reads the "Key: value" lines printed by pdfinfo.
func parsePDFInfo(out []byte) (int, PDFMetadata, error) {
	var meta PDFMetadata
	pages := -1

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Title":
			meta.Title = value
		case "Author":
			meta.Author = value
		case "Subject":
			meta.Subject = value
		case "Creator":
			meta.Creator = value
		case "CreationDate":
			meta.CreationDate = value
		case "Pages":
			n, err := strconv.Atoi(value)
			if err != nil {
				return 0, meta, fmt.Errorf("invalid page count %q", value)
			}
			pages = n
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, meta, err
	}
	if pages < 0 {
		return 0, meta, fmt.Errorf("no page count in output")
	}
	return pages, meta, nil
}
