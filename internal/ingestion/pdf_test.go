package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePDFInfo(t *testing.T) {
	out := []byte(`Title:          Acme Customer Study
Subject:        Logistics
Author:         Jane Doe
Creator:        Microsoft Word
Producer:       macOS Quartz PDFContext
CreationDate:   Tue Mar  5 10:11:12 2024 UTC
Tagged:         no
Pages:          12
Encrypted:      no
`)
	pages, meta, err := parsePDFInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 12, pages)
	assert.Equal(t, PDFMetadata{
		Title:        "Acme Customer Study",
		Author:       "Jane Doe",
		Subject:      "Logistics",
		Creator:      "Microsoft Word",
		CreationDate: "Tue Mar  5 10:11:12 2024 UTC",
	}, meta)
}

func TestParsePDFInfo_Errors(t *testing.T) {
	_, _, err := parsePDFInfo([]byte("Title: x\n"))
	assert.ErrorContains(t, err, "no page count")

	_, _, err = parsePDFInfo([]byte("Pages: many\n"))
	assert.ErrorContains(t, err, "invalid page count")
}

func TestExtractPDF_MissingFile(t *testing.T) {
	_, err := ExtractPDF(context.Background(), "/nonexistent/report.pdf")
	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "/nonexistent/report.pdf", extractErr.Path)
}

func TestExtractPDF_MissingTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	x := PDFExtractor{PdfInfo: filepath.Join(t.TempDir(), "no-such-pdfinfo")}
	_, err := x.Extract(context.Background(), path)
	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Contains(t, err.Error(), "pdfinfo failed")
}

func TestExtractPDF_Poppler(t *testing.T) {
	if _, err := exec.LookPath("pdfinfo"); err != nil {
		t.Skip("pdfinfo not installed")
	}
	if _, err := exec.LookPath("pdftotext"); err != nil {
		t.Skip("pdftotext not installed")
	}

	path := filepath.Join(t.TempDir(), "hello.pdf")
	require.NoError(t, os.WriteFile(path, minimalPDF(), 0o600))

	result, err := ExtractPDF(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello.pdf", result.Filename)
	assert.Equal(t, 1, result.PageCount)
	assert.Contains(t, result.ExtractedText, "Hello Persona")
	assert.Equal(t, len([]rune(result.ExtractedText)), result.TextLength)
}

// minimalPDF builds a one-page document containing "Hello Persona" with a
// valid cross-reference table.
func minimalPDF() []byte {
	stream := "BT /F1 24 Tf 72 720 Td (Hello Persona) Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
