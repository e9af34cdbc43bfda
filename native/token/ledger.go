package token

import (
	"errors"
	"fmt"
	"math/bits"

	"nftamm/core/types"
	"nftamm/crypto"
)

var (
	errNilState            = errors.New("token ledger: state not configured")
	ErrUnauthorized        = errors.New("token ledger: authority does not control source account")
	ErrAccountNotFound     = errors.New("token ledger: account not found")
	ErrAccountNotEmpty     = errors.New("token ledger: account still holds assets")
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
	ErrAmountOverflow      = errors.New("token ledger: amount overflow")
)

// DefaultAccountDeposit is the reclaimable deposit locked when a holding
// record is created, denominated in the smallest native unit.
const DefaultAccountDeposit uint64 = 2_039_280

// State is the persistence backend consumed by the ledger. Holding records
// are keyed by (owner, mint); deposits settle against native accounts.
type State interface {
	TokenGet(owner [20]byte, mint [32]byte) (*Account, bool, error)
	TokenPut(*Account) error
	TokenDelete(owner [20]byte, mint [32]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Ledger provides the raw transfer and close primitives over asset holding
// records. Transfers out of an account require an authority for the owning
// address - a validated signer or a program-derived authority; the ledger
// does not distinguish the two.
type Ledger struct {
	state   State
	deposit uint64
}

// NewLedger constructs a ledger over the supplied state backend.
func NewLedger(state State) *Ledger {
	return &Ledger{state: state, deposit: DefaultAccountDeposit}
}

// SetAccountDeposit overrides the deposit locked for new holding records.
func (l *Ledger) SetAccountDeposit(amount uint64) { l.deposit = amount }

// Balance returns the asset amount held by owner for mint; zero when no
// record exists.
func (l *Ledger) Balance(owner [20]byte, mint [32]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, errNilState
	}
	acct, ok, err := l.state.TokenGet(owner, mint)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return acct.Amount, nil
}

// Ensure returns the holding record for (owner, mint), creating it if needed.
// The deposit for a new record is debited from depositPayer's native balance.
func (l *Ledger) Ensure(owner [20]byte, mint [32]byte, depositPayer [20]byte) (*Account, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	acct, ok, err := l.state.TokenGet(owner, mint)
	if err != nil {
		return nil, err
	}
	if ok {
		return acct, nil
	}
	payer, err := l.state.GetAccount(depositPayer)
	if err != nil {
		return nil, err
	}
	if payer.Balance < l.deposit {
		return nil, fmt.Errorf("%w: deposit payer holds %d, needs %d", ErrInsufficientBalance, payer.Balance, l.deposit)
	}
	payer.Balance -= l.deposit
	if err := l.state.PutAccount(depositPayer, payer); err != nil {
		return nil, err
	}
	acct = &Account{Owner: owner, Mint: mint, Amount: 0, Deposit: l.deposit}
	if err := l.state.TokenPut(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Transfer moves amount units of mint from one owner to another. The
// destination record must already exist (see Ensure); the source must be
// controlled by the supplied authority.
func (l *Ledger) Transfer(mint [32]byte, amount uint64, from, to [20]byte, auth crypto.Authority) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == 0 {
		return fmt.Errorf("token ledger: transfer amount must be positive")
	}
	if auth == nil || auth.Address() != from {
		return ErrUnauthorized
	}
	src, ok, err := l.state.TokenGet(from, mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	if src.Amount < amount {
		return ErrInsufficientBalance
	}
	dst, ok, err := l.state.TokenGet(to, mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return ErrAmountOverflow
	}
	src.Amount -= amount
	dst.Amount = sum
	if err := l.state.TokenPut(src); err != nil {
		return err
	}
	return l.state.TokenPut(dst)
}

// Close removes an emptied holding record and returns its deposit to the
// destination's native balance.
func (l *Ledger) Close(owner [20]byte, mint [32]byte, destination [20]byte, auth crypto.Authority) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if auth == nil || auth.Address() != owner {
		return ErrUnauthorized
	}
	acct, ok, err := l.state.TokenGet(owner, mint)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	if acct.Amount != 0 {
		return ErrAccountNotEmpty
	}
	dest, err := l.state.GetAccount(destination)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(dest.Balance, acct.Deposit, 0)
	if carry != 0 {
		return ErrAmountOverflow
	}
	dest.Balance = sum
	if err := l.state.PutAccount(destination, dest); err != nil {
		return err
	}
	return l.state.TokenDelete(owner, mint)
}
