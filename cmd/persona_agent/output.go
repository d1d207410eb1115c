package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// writeJSON writes v indented to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	out = append(out, '\n')
	if path == "" {
		_, err = w.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
