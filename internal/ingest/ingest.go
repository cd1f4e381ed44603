// Package ingest reads raw transaction sources from disk and writes ledger files.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/normalization"
)

// Source errors. Both abort a run before any scoring happens.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrMalformedInput = errors.New("malformed input")
)

// openSource opens path, mapping a missing file to ErrSourceNotFound.
func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// loadFile opens path and hands it to decode.
func loadFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	f, err := openSource(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()

	out, err := decode(f)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Load reads path with the loader matching schema.
func Load(schema domain.Schema, path string) ([]normalization.RawRecord, error) {
	switch schema {
	case domain.SchemaActionLog:
		return LoadActionLog(path)
	case domain.SchemaLedger:
		return LoadLedger(path)
	default:
		return nil, fmt.Errorf("unsupported schema %q", schema)
	}
}
