package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"wallet-risk-lab/internal/normalization"
)

// LoadActionLog reads a JSON action log file: a top-level array of record objects.
func LoadActionLog(path string) ([]normalization.RawRecord, error) {
	return loadFile(path, DecodeActionLog)
}

// DecodeActionLog decodes a JSON action log. Numbers are kept as json.Number
// so large token amounts survive until decimal coercion. Elements that are not
// objects become empty records, which the normalizer skips for lacking a
// wallet; positions are preserved so skip warnings carry the source index.
// Only a document that is not a JSON array fails the decode.
func DecodeActionLog(r io.Reader) ([]normalization.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []normalization.RawRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	records := make([]normalization.RawRecord, 0, len(raw))
	for _, msg := range raw {
		records = append(records, decodeActionRecord(msg))
	}

	return records, nil
}

// decodeActionRecord returns the element as a record, or an empty record when
// it is null, a scalar or an array.
func decodeActionRecord(msg json.RawMessage) normalization.RawRecord {
	var rec map[string]any
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return normalization.RawRecord{}
	}
	return normalization.RawRecord(rec)
}
