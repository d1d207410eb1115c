package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sourceColumns = `id, source_type, content_type, company_name, file_name, website_url, title,
	content_preview, text_length, total_chunks, file_size_bytes, content_hash, storage_key,
	scraped_at, created_at`

func scanSource(row pgx.Row) (*DataSource, error) {
	var s DataSource
	err := row.Scan(&s.ID, &s.SourceType, &s.ContentType, &s.CompanyName, &s.FileName,
		&s.WebsiteURL, &s.Title, &s.ContentPreview, &s.TextLength, &s.TotalChunks,
		&s.FileSizeBytes, &s.ContentHash, &s.StorageKey, &s.ScrapedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSource stores a data source and its chunks in one transaction.
func (db *DB) CreateSource(ctx context.Context, input *SourceCreateInput) (*DataSource, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	source, err := scanSource(tx.QueryRow(ctx,
		`INSERT INTO data_sources (source_type, content_type, company_name, file_name, website_url,
		        title, content_preview, text_length, total_chunks, file_size_bytes, content_hash, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+sourceColumns,
		input.SourceType, input.ContentType, nullable(input.CompanyName), nullable(input.FileName),
		nullable(input.WebsiteURL), nullable(input.Title), input.ContentPreview, input.TextLength,
		len(input.Chunks), nullableInt64(input.FileSizeBytes), input.ContentHash, input.ScrapedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	if len(input.Chunks) > 0 {
		rows := make([][]any, len(input.Chunks))
		for i, c := range input.Chunks {
			rows[i] = []any{source.ID, c.Index, c.Content, c.CharCount}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"source_chunks"},
			[]string{"source_id", "chunk_index", "content", "char_count"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit data source: %w", err)
	}
	return source, nil
}

// GetSource retrieves a data source by ID. It returns nil when none exists.
func (db *DB) GetSource(ctx context.Context, id uuid.UUID) (*DataSource, error) {
	source, err := scanSource(db.pool.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM data_sources WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get data source: %w", err)
	}
	return source, nil
}

// GetSourceByHash returns the most recent source with the given content hash, or nil.
func (db *DB) GetSourceByHash(ctx context.Context, hash string) (*DataSource, error) {
	source, err := scanSource(db.pool.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM data_sources WHERE content_hash = $1
		 ORDER BY created_at DESC LIMIT 1`, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get data source by hash: %w", err)
	}
	return source, nil
}

// ListSources returns sources newest first.
func (db *DB) ListSources(ctx context.Context, opts SourceListOptions) ([]DataSource, error) {
	opts.normalize()

	var (
		where []string
		args  []any
	)
	if opts.SourceType != "" {
		args = append(args, opts.SourceType)
		where = append(where, fmt.Sprintf("source_type = $%d", len(args)))
	}
	if opts.CompanyName != "" {
		args = append(args, opts.CompanyName)
		where = append(where, fmt.Sprintf("lower(company_name) = lower($%d)", len(args)))
	}

	query := `SELECT ` + sourceColumns + ` FROM data_sources`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit, opts.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	defer rows.Close()

	var sources []DataSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data source: %w", err)
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// GetChunks returns the chunks of a source in order.
func (db *DB) GetChunks(ctx context.Context, sourceID uuid.UUID) ([]SourceChunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source_id, chunk_index, content, char_count, created_at
		 FROM source_chunks WHERE source_id = $1 ORDER BY chunk_index`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// GetChunksForSources returns up to limit chunks per source, sources in the
// order given and chunks in document order.
func (db *DB) GetChunksForSources(ctx context.Context, sourceIDs []uuid.UUID, limit int) ([]SourceChunk, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}
	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.source_id, c.chunk_index, c.content, c.char_count, c.created_at
		 FROM source_chunks c
		 JOIN unnest($1::uuid[]) WITH ORDINALITY AS s(id, ord) ON s.id = c.source_id
		 WHERE c.chunk_index < $2
		 ORDER BY s.ord, c.chunk_index`, sourceIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks for sources: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows pgx.Rows) ([]SourceChunk, error) {
	var chunks []SourceChunk
	for rows.Next() {
		var c SourceChunk
		if err := rows.Scan(&c.ID, &c.SourceID, &c.ChunkIndex, &c.Content, &c.CharCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SetStorageKey records where the original upload was archived.
func (db *DB) SetStorageKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := db.pool.Exec(ctx, `UPDATE data_sources SET storage_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to set storage key: %w", err)
	}
	return nil
}

// DeleteSource removes a source and, by cascade, its chunks. It reports
// whether a row was deleted.
func (db *DB) DeleteSource(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM data_sources WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete data source: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
