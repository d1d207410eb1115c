package db

import (
	"time"

	"github.com/google/uuid"
)

// SourceType is where a data source came from.
type SourceType string

const (
	SourceTypeWebsite SourceType = "website"
	SourceTypeFile    SourceType = "file"
)

// ContentType is the format the source text was extracted from.
type ContentType string

const (
	ContentTypeCSV  ContentType = "csv"
	ContentTypePDF  ContentType = "pdf"
	ContentTypeHTML ContentType = "html"
	ContentTypeText ContentType = "text"
)

// PreviewLength is the number of characters kept in ContentPreview.
const PreviewLength = 500

// DataSource is an ingested website or uploaded file.
type DataSource struct {
	ID             uuid.UUID   `json:"id"`
	SourceType     SourceType  `json:"source_type"`
	ContentType    ContentType `json:"content_type"`
	CompanyName    *string     `json:"company_name,omitempty"`
	FileName       *string     `json:"file_name,omitempty"`
	WebsiteURL     *string     `json:"website_url,omitempty"`
	Title          *string     `json:"title,omitempty"`
	ContentPreview string      `json:"content_preview"`
	TextLength     int         `json:"text_length"`
	TotalChunks    int         `json:"total_chunks"`
	FileSizeBytes  *int64      `json:"file_size_bytes,omitempty"`
	ContentHash    string      `json:"content_hash"`
	StorageKey     *string     `json:"storage_key,omitempty"`
	ScrapedAt      *time.Time  `json:"scraped_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// SourceChunk is one chunk of a data source's text.
type SourceChunk struct {
	ID         uuid.UUID `json:"id"`
	SourceID   uuid.UUID `json:"source_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	CharCount  int       `json:"char_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// SourceCreateInput is the data needed to store a source with its chunks.
type SourceCreateInput struct {
	SourceType     SourceType
	ContentType    ContentType
	CompanyName    string
	FileName       string
	WebsiteURL     string
	Title          string
	ContentPreview string
	TextLength     int
	FileSizeBytes  int64
	ContentHash    string
	ScrapedAt      *time.Time
	Chunks         []ChunkInput
}

// ChunkInput is one chunk to store.
type ChunkInput struct {
	Index     int
	Content   string
	CharCount int
}

// SourceListOptions filters ListSources.
type SourceListOptions struct {
	SourceType  SourceType
	CompanyName string
	Limit       int
	Offset      int
}

// Default and maximum page sizes for ListSources.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// normalize clamps paging values.
func (o *SourceListOptions) normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// nullable maps empty strings to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt64(n int64) *int64 {
	if n <= 0 {
		return nil
	}
	return &n
}
