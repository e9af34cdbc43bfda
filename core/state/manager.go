package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"nftamm/core/types"
	"nftamm/native/amm"
	"nftamm/native/token"
	"nftamm/storage"
)

// Key prefixes namespace the flat key-value store. Record keys are the raw
// identifying bytes appended to the prefix.
var (
	accountPrefix = []byte("acct/")
	tokenPrefix   = []byte("tok/")
	poolPrefix    = []byte("pool/")
)

// Manager is the canonical state backend over a storage.Database. Records are
// stored as JSON under prefixed keys. It satisfies the state interfaces of the
// settlement engine and the token ledger.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr [20]byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr[:]...)
}

func tokenKey(owner [20]byte, mint [32]byte) []byte {
	key := append(append([]byte{}, tokenPrefix...), owner[:]...)
	return append(key, mint[:]...)
}

func poolKey(id [20]byte) []byte {
	return append(append([]byte{}, poolPrefix...), id[:]...)
}

// GetAccount loads the native account for addr. An absent account is returned
// as a fresh zero-balance account, never an error.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &types.Account{}, nil
	}
	if err != nil {
		return nil, err
	}
	var account types.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("state: decode account %x: %w", addr, err)
	}
	return &account, nil
}

// PutAccount persists the native account for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account for %x", addr)
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), raw)
}

// TokenGet loads the asset holding record for (owner, mint).
func (m *Manager) TokenGet(owner [20]byte, mint [32]byte) (*token.Account, bool, error) {
	raw, err := m.db.Get(tokenKey(owner, mint))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var acct token.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, false, fmt.Errorf("state: decode token account: %w", err)
	}
	return &acct, true, nil
}

// TokenPut persists an asset holding record under its (owner, mint) key.
func (m *Manager) TokenPut(acct *token.Account) error {
	if acct == nil {
		return fmt.Errorf("state: nil token account")
	}
	raw, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	return m.db.Put(tokenKey(acct.Owner, acct.Mint), raw)
}

// TokenDelete removes the asset holding record for (owner, mint).
func (m *Manager) TokenDelete(owner [20]byte, mint [32]byte) error {
	return m.db.Delete(tokenKey(owner, mint))
}

// PoolGet loads a pool record by its derived address.
func (m *Manager) PoolGet(id [20]byte) (*amm.Pool, bool, error) {
	raw, err := m.db.Get(poolKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var pool amm.Pool
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, false, fmt.Errorf("state: decode pool %x: %w", id, err)
	}
	return &pool, true, nil
}

// PoolPut persists a pool record under its derived address.
func (m *Manager) PoolPut(pool *amm.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	id := pool.Address()
	return m.db.Put(poolKey(id), raw)
}

// PoolDelete removes a pool record.
func (m *Manager) PoolDelete(id [20]byte) error {
	return m.db.Delete(poolKey(id))
}
