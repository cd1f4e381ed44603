package normalization

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/idhash"
)

// ErrMissingWallet is returned when a record lacks the schema's wallet field.
var ErrMissingWallet = errors.New("record missing wallet identifier")

// RawRecord is one source record as decoded from JSON or CSV.
type RawRecord map[string]any

// SkippedRecord describes a record dropped during normalization.
type SkippedRecord struct {
	Index  int
	Reason string
}

// Result holds normalized transactions and the records that were skipped.
type Result struct {
	Transactions []*domain.Transaction
	Skipped      []SkippedRecord
}

// Normalizer maps raw records of one schema into canonical transactions.
type Normalizer struct {
	schema domain.Schema
	logger *zap.Logger
}

// NewNormalizer creates a normalizer for the given schema.
func NewNormalizer(schema domain.Schema, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{schema: schema, logger: logger}
}

// Schema returns the schema this normalizer reads.
func (n *Normalizer) Schema() domain.Schema {
	return n.schema
}

// Normalize converts a single record. index is the record's position in the
// source and only feeds the fallback transaction id.
func (n *Normalizer) Normalize(rec RawRecord, index int) (*domain.Transaction, error) {
	walletID := toString(rec[n.schema.WalletKey()])
	if walletID == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingWallet, n.schema.WalletKey())
	}

	switch n.schema {
	case domain.SchemaLedger:
		return n.fromLedger(rec, walletID, index), nil
	default:
		return n.fromActionLog(rec, walletID, index), nil
	}
}

// NormalizeAll converts every record, skipping and logging the ones that fail.
// A bad record never aborts the batch.
func (n *Normalizer) NormalizeAll(records []RawRecord) *Result {
	result := &Result{
		Transactions: make([]*domain.Transaction, 0, len(records)),
	}

	for i, rec := range records {
		tx, err := n.Normalize(rec, i)
		if err != nil {
			n.logger.Warn("skipping record",
				zap.Int("index", i),
				zap.String("schema", n.schema.String()),
				zap.String("reason", err.Error()),
			)
			result.Skipped = append(result.Skipped, SkippedRecord{Index: i, Reason: err.Error()})
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	return result
}

// fromActionLog reads the JSON action log layout.
// Liquidations are valued on the seized collateral, everything else on
// amount x assetPriceUSD.
func (n *Normalizer) fromActionLog(rec RawRecord, walletID string, index int) *domain.Transaction {
	rawAction := toString(rec["action"])
	action := domain.ParseAction(rawAction)
	data := nested(rec, "actionData")
	timestamp := toUnixSeconds(rec["timestamp"])

	var amountUSD float64
	symbol := toString(data["assetSymbol"])
	if action == domain.ActionLiquidation {
		amountUSD = usdValue(data["collateralAmount"], data["collateralAssetPriceUSD"])
		if symbol == "" {
			symbol = toString(data["collateralReserveSymbol"])
		}
	} else {
		amountUSD = usdValue(data["amount"], data["assetPriceUSD"])
	}

	id := toString(rec["txHash"])
	if id != "" {
		if logID := toString(rec["logId"]); logID != "" {
			id = id + ":" + logID
		}
	} else {
		id = idhash.ComputeTransactionID(walletID, rawAction, timestamp, index)
	}

	return &domain.Transaction{
		ID:          id,
		WalletID:    walletID,
		Action:      action,
		RawAction:   rawAction,
		AmountUSD:   amountUSD,
		AssetSymbol: symbol,
		Timestamp:   timestamp,
	}
}

// fromLedger reads the CSV ledger layout. The ledger carries no unit price,
// so the raw amount is taken as the USD value.
func (n *Normalizer) fromLedger(rec RawRecord, walletID string, index int) *domain.Transaction {
	rawAction := toString(rec["type"])
	timestamp := toUnixSeconds(rec["timestamp"])

	id := toString(rec["transaction_id"])
	if id == "" {
		id = idhash.ComputeTransactionID(walletID, rawAction, timestamp, index)
	}

	return &domain.Transaction{
		ID:          id,
		WalletID:    walletID,
		Action:      domain.ParseAction(rawAction),
		RawAction:   rawAction,
		AmountUSD:   toFloat(rec["amount"]),
		AssetSymbol: toString(rec["symbol"]),
		Timestamp:   timestamp,
	}
}
