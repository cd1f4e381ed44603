package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-risk-lab/internal/normalization"
)

// LedgerHeader is the column layout of a ledger CSV.
var LedgerHeader = []string{"wallet_id", "transaction_id", "type", "amount", "symbol", "timestamp"}

// LedgerRow is one ledger line as produced by the subgraph fetcher.
type LedgerRow struct {
	WalletID      string
	TransactionID string
	Type          string // borrow | repay | liquidation
	Amount        decimal.Decimal
	Symbol        string
	Timestamp     int64 // Unix seconds
}

// RawRecord converts the row into the ledger schema's raw record form.
func (r LedgerRow) RawRecord() normalization.RawRecord {
	return normalization.RawRecord{
		"wallet_id":      r.WalletID,
		"transaction_id": r.TransactionID,
		"type":           r.Type,
		"amount":         r.Amount.String(),
		"symbol":         r.Symbol,
		"timestamp":      strconv.FormatInt(r.Timestamp, 10),
	}
}

// LoadLedger reads a ledger CSV file. The first line must be a header row.
func LoadLedger(path string) ([]normalization.RawRecord, error) {
	return loadFile(path, DecodeLedger)
}

// DecodeLedger decodes ledger CSV. Each row becomes a record keyed by header
// name; every value stays a string. Columns are matched by name so extra or
// reordered columns are accepted. Short rows get "" for the missing columns
// and are left to the normalizer to keep or skip; cells beyond the header
// are dropped. Only CSV syntax errors fail the decode.
func DecodeLedger(r io.Reader) ([]normalization.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []normalization.RawRecord{}, nil
		}
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedInput, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []normalization.RawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}

		rec := make(normalization.RawRecord, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}

	if records == nil {
		records = []normalization.RawRecord{}
	}
	return records, nil
}

// WriteLedger writes the header and rows as CSV.
func WriteLedger(w io.Writer, rows []LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := AppendLedgerHeader(cw); err != nil {
		return err
	}
	return AppendLedger(cw, rows)
}

// AppendLedgerHeader writes the header row and flushes.
func AppendLedgerHeader(cw *csv.Writer) error {
	if err := cw.Write(LedgerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// AppendLedger writes rows without a header and flushes.
func AppendLedger(cw *csv.Writer, rows []LedgerRow) error {
	for _, r := range rows {
		rec := []string{
			r.WalletID,
			r.TransactionID,
			r.Type,
			r.Amount.String(),
			r.Symbol,
			strconv.FormatInt(r.Timestamp, 10),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.TransactionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
