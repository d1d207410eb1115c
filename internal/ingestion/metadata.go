package ingestion

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/jonathan/persona-engine/internal/db"
)

// Document is extracted source text ready to be chunked and stored.
type Document struct {
	SourceType  db.SourceType
	ContentType db.ContentType
	CompanyName string
	FileName    string
	URL         string
	Title       string
	// Text is the cleaned document body.
	Text string
	// Original is the uploaded file, archived when a store is configured.
	Original  []byte
	MIMEType  string
	ScrapedAt *time.Time
}

// ContentHash returns the hex BLAKE2b-256 digest of text.
func ContentHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
