package domain

// Schema identifies the raw record layout a source uses.
type Schema string

const (
	// SchemaActionLog is the JSON action log: userWallet, action, timestamp, actionData.
	SchemaActionLog Schema = "action_log"
	// SchemaLedger is the CSV ledger: wallet_id, transaction_id, type, amount, symbol, timestamp.
	SchemaLedger Schema = "ledger"
)

// String returns the string representation of Schema.
func (s Schema) String() string {
	return string(s)
}

// IsValid checks if the schema is a valid value.
func (s Schema) IsValid() bool {
	return s == SchemaActionLog || s == SchemaLedger
}

// WalletKey returns the record field carrying the wallet identifier.
func (s Schema) WalletKey() string {
	if s == SchemaLedger {
		return "wallet_id"
	}
	return "userWallet"
}
