package token

// Account is a per-owner, per-mint holding record for fungible or
// semi-fungible assets. The deposit is the reclaimable amount locked when the
// record was created; it returns to a destination of the closer's choice when
// the record is closed.
type Account struct {
	Owner   [20]byte `json:"owner"`
	Mint    [32]byte `json:"mint"`
	Amount  uint64   `json:"amount"`
	Deposit uint64   `json:"deposit"`
}

// Clone returns a copy of the account so callers can mutate it without
// touching the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
