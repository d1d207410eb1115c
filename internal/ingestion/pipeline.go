package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/persona-engine/internal/db"
	"github.com/jonathan/persona-engine/internal/fetch"
	"github.com/jonathan/persona-engine/internal/logger"
	"github.com/jonathan/persona-engine/internal/metrics"
	"github.com/jonathan/persona-engine/internal/storage"
)

// SourceStore persists data sources and their chunks.
type SourceStore interface {
	CreateSource(ctx context.Context, input *db.SourceCreateInput) (*db.DataSource, error)
	GetSourceByHash(ctx context.Context, hash string) (*db.DataSource, error)
	SetStorageKey(ctx context.Context, id uuid.UUID, key string) error
}

// Ingested is the outcome of ingesting one document.
type Ingested struct {
	Source      *db.DataSource `json:"source,omitempty"`
	Duplicate   bool           `json:"duplicate,omitempty"`
	ContentHash string         `json:"content_hash"`
	StorageKey  string         `json:"storage_key,omitempty"`
	ChunkStats  ChunkStats     `json:"chunk_stats"`
	Chunks      []Chunk        `json:"-"`
}

// Pipeline extracts, cleans, chunks and stores source documents. Store and
// archive are optional; without them documents are only chunked.
type Pipeline struct {
	chunker *Chunker
	store   SourceStore
	archive storage.Store
	scraper *fetch.Scraper
	pdf     PDFExtractor
	log     logger.Logger
	metrics *metrics.Manager
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStore persists ingested documents.
func WithStore(store SourceStore) PipelineOption {
	return func(p *Pipeline) { p.store = store }
}

// WithArchive archives uploaded originals.
func WithArchive(archive storage.Store) PipelineOption {
	return func(p *Pipeline) { p.archive = archive }
}

// WithScraper sets the scraper used by IngestURL.
func WithScraper(s *fetch.Scraper) PipelineOption {
	return func(p *Pipeline) { p.scraper = s }
}

// WithChunker overrides the default chunk sizes.
func WithChunker(c *Chunker) PipelineOption {
	return func(p *Pipeline) { p.chunker = c }
}

// WithPDFExtractor overrides the poppler tool paths.
func WithPDFExtractor(x PDFExtractor) PipelineOption {
	return func(p *Pipeline) { p.pdf = x }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(log logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithPipelineMetrics sets the metrics manager.
func WithPipelineMetrics(m *metrics.Manager) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		chunker: NewChunker(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scraper == nil {
		p.scraper = fetch.NewScraper(nil, nil, p.log)
	}
	return p
}

// Upload is a file received from a client.
type Upload struct {
	CompanyName string
	FileName    string
	Data        []byte
}

// CRMIngested is a parsed and stored CRM export.
type CRMIngested struct {
	*CRMResult
	Ingested
}

// IngestCRM parses a CSV export and stores its text table.
func (p *Pipeline) IngestCRM(ctx context.Context, up Upload) (*CRMIngested, error) {
	parsed, err := ParseCRM(up.Data)
	if err != nil {
		return nil, err
	}
	ingested, err := p.Ingest(ctx, Document{
		SourceType:  db.SourceTypeFile,
		ContentType: db.ContentTypeCSV,
		CompanyName: up.CompanyName,
		FileName:    up.FileName,
		Title:       up.FileName,
		Text:        parsed.FullContent,
		Original:    up.Data,
		MIMEType:    "text/csv",
	})
	if err != nil {
		return nil, err
	}
	return &CRMIngested{CRMResult: parsed, Ingested: *ingested}, nil
}

// PDFIngested is an extracted and stored PDF.
type PDFIngested struct {
	*PDFResult
	Ingested
}

// IngestPDF extracts a PDF upload and stores its cleaned text.
func (p *Pipeline) IngestPDF(ctx context.Context, up Upload) (*PDFIngested, error) {
	dir, err := os.MkdirTemp("", "persona-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	name := filepath.Base(up.FileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload.pdf"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, up.Data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	extracted, err := p.pdf.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	title := extracted.Metadata.Title
	if title == "" {
		title = name
	}
	ingested, err := p.Ingest(ctx, Document{
		SourceType:  db.SourceTypeFile,
		ContentType: db.ContentTypePDF,
		CompanyName: up.CompanyName,
		FileName:    name,
		Title:       title,
		Text:        CleanText(extracted.ExtractedText),
		Original:    up.Data,
		MIMEType:    "application/pdf",
	})
	if err != nil {
		return nil, err
	}
	return &PDFIngested{PDFResult: extracted, Ingested: *ingested}, nil
}

// PageIngested is a scraped and stored web page.
type PageIngested struct {
	Page *fetch.Page `json:"page"`
	Ingested
}

// IngestURL scrapes a page and stores its link-free text.
func (p *Pipeline) IngestURL(ctx context.Context, companyName, rawURL string, useBrowser bool) (*PageIngested, error) {
	page, err := p.scraper.Scrape(ctx, rawURL, useBrowser)
	if err != nil {
		return nil, err
	}
	page.Text = CleanText(StripLinks(page.Text, true))

	now := time.Now().UTC()
	ingested, err := p.Ingest(ctx, Document{
		SourceType:  db.SourceTypeWebsite,
		ContentType: db.ContentTypeHTML,
		CompanyName: companyName,
		URL:         rawURL,
		Title:       page.Title,
		Text:        page.Text,
		ScrapedAt:   &now,
	})
	if err != nil {
		return nil, err
	}
	return &PageIngested{Page: page, Ingested: *ingested}, nil
}

// Ingest chunks doc.Text and, when configured, stores the source and archives
// the original concurrently. An identical document already stored is returned
// as a duplicate. Archive failures are logged and never fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (*Ingested, error) {
	if doc.Text == "" {
		return nil, &ParseError{Message: "document contains no text"}
	}

	hash := ContentHash(doc.Text)
	chunks := p.chunker.Split(doc.Text)
	out := &Ingested{
		ContentHash: hash,
		ChunkStats:  Stats(chunks),
		Chunks:      chunks,
	}

	if p.store != nil {
		existing, err := p.store.GetSourceByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			p.log.Info(ctx, "duplicate source skipped",
				logger.String("source_id", existing.ID.String()), logger.String("hash", hash))
			out.Source = existing
			out.Duplicate = true
			return out, nil
		}
	}

	var archiveKey string
	if p.archive != nil && len(doc.Original) > 0 {
		archiveKey = storage.SourceKey(hash, doc.FileName)
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.store != nil {
		g.Go(func() error {
			source, err := p.store.CreateSource(gctx, sourceInput(doc, hash, chunks))
			if err != nil {
				return err
			}
			out.Source = source
			return nil
		})
	}
	if archiveKey != "" {
		g.Go(func() error {
			if err := p.archive.Put(gctx, archiveKey, doc.Original, doc.MIMEType); err != nil {
				p.log.Warn(gctx, "archive upload failed", logger.String("key", archiveKey), logger.Err(err))
				return nil
			}
			out.StorageKey = archiveKey
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if out.Source != nil && out.StorageKey != "" {
		if err := p.store.SetStorageKey(ctx, out.Source.ID, out.StorageKey); err != nil {
			p.log.Warn(ctx, "failed to record storage key", logger.Err(err))
		} else {
			out.Source.StorageKey = &out.StorageKey
		}
	}

	p.metrics.RecordIngestion(string(doc.ContentType), len(chunks))
	fields := []logger.Field{
		logger.String("content_type", string(doc.ContentType)),
		logger.Int("text_length", runeLen(doc.Text)),
		logger.Int("chunks", len(chunks)),
	}
	if out.Source != nil {
		fields = append(fields, logger.String("source_id", out.Source.ID.String()))
	}
	p.log.Info(ctx, "document ingested", fields...)
	return out, nil
}

func sourceInput(doc Document, hash string, chunks []Chunk) *db.SourceCreateInput {
	input := &db.SourceCreateInput{
		SourceType:     doc.SourceType,
		ContentType:    doc.ContentType,
		CompanyName:    doc.CompanyName,
		FileName:       Preview(doc.FileName, 255),
		WebsiteURL:     doc.URL,
		Title:          Preview(doc.Title, 500),
		ContentPreview: Preview(doc.Text, db.PreviewLength),
		TextLength:     runeLen(doc.Text),
		FileSizeBytes:  int64(len(doc.Original)),
		ContentHash:    hash,
		ScrapedAt:      doc.ScrapedAt,
		Chunks:         make([]db.ChunkInput, len(chunks)),
	}
	for i, c := range chunks {
		input.Chunks[i] = db.ChunkInput{Index: c.Index, Content: c.Text, CharCount: c.CharCount}
	}
	return input
}
