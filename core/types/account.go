package types

// Account is the native-currency balance record tracked by the settlement
// state. Escrow accounts are ordinary accounts held at program-derived
// addresses; nothing about the record itself marks it as an escrow.
type Account struct {
	Nonce   uint64 `json:"nonce"`
	Balance uint64 `json:"balance"`
}

// Clone returns a copy of the account so callers can mutate it without
// touching the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	clone := *a
	return &clone
}
