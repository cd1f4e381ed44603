package subgraph

import (
	"github.com/shopspring/decimal"

	"wallet-risk-lab/internal/ingest"
)

// Event is one borrow, repay or liquidation entity.
// The subgraph serialises BigDecimal and BigInt as JSON strings and Int as a
// number; decimal.Decimal accepts both.
type Event struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Timestamp        decimal.Decimal `json:"timestamp"`
	UnderlyingSymbol string          `json:"underlyingSymbol"`
}

// Account is a Compound v2 account with its lending events.
type Account struct {
	ID           string  `json:"id"`
	Borrows      []Event `json:"borrows"`
	Repays       []Event `json:"repays"`
	Liquidations []Event `json:"liquidations"`
}

// Ledger row types, matching the normalizer's action names.
const (
	TypeBorrow      = "borrow"
	TypeRepay       = "repay"
	TypeLiquidation = "liquidation"
)

// LedgerRows flattens the account into ledger rows attributed to wallet:
// borrows, then repays, then liquidations, each in subgraph order.
func (a *Account) LedgerRows(wallet string) []ingest.LedgerRow {
	if a == nil {
		return nil
	}

	rows := make([]ingest.LedgerRow, 0, len(a.Borrows)+len(a.Repays)+len(a.Liquidations))
	groups := []struct {
		typ    string
		events []Event
	}{
		{TypeBorrow, a.Borrows},
		{TypeRepay, a.Repays},
		{TypeLiquidation, a.Liquidations},
	}
	for _, g := range groups {
		for _, e := range g.events {
			rows = append(rows, ingest.LedgerRow{
				WalletID:      wallet,
				TransactionID: e.ID,
				Type:          g.typ,
				Amount:        e.Amount,
				Symbol:        e.UnderlyingSymbol,
				Timestamp:     e.Timestamp.IntPart(),
			})
		}
	}
	return rows
}
