package domain

import "strings"

// Action is a lending-protocol operation type.
type Action string

const (
	ActionDeposit     Action = "deposit"
	ActionBorrow      Action = "borrow"
	ActionRepay       Action = "repay"
	ActionRedeem      Action = "redeem"
	ActionLiquidation Action = "liquidation"

	// ActionUnknown marks a record whose action matched no known type.
	// It still counts toward interaction totals.
	ActionUnknown Action = "unknown"
)

// actionAliases maps raw protocol action names to canonical actions.
// Aave v2 exports use redeemunderlying and liquidationcall.
var actionAliases = map[string]Action{
	"deposit":          ActionDeposit,
	"borrow":           ActionBorrow,
	"repay":            ActionRepay,
	"redeem":           ActionRedeem,
	"redeemunderlying": ActionRedeem,
	"liquidation":      ActionLiquidation,
	"liquidationcall":  ActionLiquidation,
}

// ParseAction maps a raw action name to an Action.
// Matching is case-insensitive; unmatched names return ActionUnknown.
func ParseAction(raw string) Action {
	if a, ok := actionAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return a
	}
	return ActionUnknown
}

// String returns the string representation of Action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is one of the known lending actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionDeposit, ActionBorrow, ActionRepay, ActionRedeem, ActionLiquidation:
		return true
	}
	return false
}

// Transaction is one canonical lending event for a wallet.
// Corresponds to wallet_transactions table in PostgreSQL.
type Transaction struct {
	ID          string  // txHash:logId, subgraph id, or deterministic hash
	WalletID    string  // wallet address
	Action      Action  // canonical action
	RawAction   string  // action as it appeared in the source
	AmountUSD   float64 // always >= 0
	AssetSymbol string  // asset symbol (may be empty)
	Timestamp   int64   // Unix timestamp in seconds
}
