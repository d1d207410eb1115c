package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-engine/internal/ingestion"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Clean and chunk a text file without storing it",
	RunE:  runChunk,
}

var (
	chunkInput   string
	chunkSize    int
	chunkOverlap int
	chunkMin     int
	chunkOutput  string
)

func init() {
	chunkCmd.Flags().StringVarP(&chunkInput, "in", "i", "", "Path to a text file (required)")
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "Target chunk size in characters (overrides chunking.chunk_size)")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "Overlap between chunks (overrides chunking.overlap)")
	chunkCmd.Flags().IntVar(&chunkMin, "min", -1, "Minimum chunk size (overrides chunking.min_chunk_size)")
	chunkCmd.Flags().StringVarP(&chunkOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	_ = chunkCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(chunkCmd)
}

type chunkOutputDoc struct {
	Stats  ingestion.ChunkStats `json:"stats"`
	Chunks []ingestion.Chunk    `json:"chunks"`
}

func runChunk(cmd *cobra.Command, _ []string) error {
	svc, err := setup(cmd)
	if err != nil {
		return err
	}
	defer svc.close()

	c := svc.chunker()
	if chunkSize > 0 {
		c.ChunkSize = chunkSize
	}
	if chunkOverlap >= 0 {
		c.Overlap = chunkOverlap
	}
	if chunkMin >= 0 {
		c.MinChunkSize = chunkMin
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", c.Overlap, c.ChunkSize)
	}

	data, err := os.ReadFile(chunkInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), chunkOutput, chunkText(c, string(data)))
}

func chunkText(c *ingestion.Chunker, text string) chunkOutputDoc {
	chunks := c.Split(ingestion.CleanText(text))
	if chunks == nil {
		chunks = []ingestion.Chunk{}
	}
	return chunkOutputDoc{Stats: ingestion.Stats(chunks), Chunks: chunks}
}
