package state

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"nftamm/core/types"
	"nftamm/native/amm"
	"nftamm/native/token"
	"nftamm/storage"
)

func TestManagerAccountRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := [20]byte{0x01}

	acc, err := m.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), acc.Balance, "absent account reads as zero")

	acc.Balance = 42
	acc.Nonce = 7
	require.NoError(t, m.PutAccount(addr, acc))

	loaded, err := m.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(42), loaded.Balance)
	require.Equal(t, uint64(7), loaded.Nonce)
}

func TestManagerTokenRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	owner := [20]byte{0x01}
	mint := [32]byte{0xAB}

	_, ok, err := m.TokenGet(owner, mint)
	require.NoError(t, err)
	require.False(t, ok)

	acct := &token.Account{Owner: owner, Mint: mint, Amount: 3, Deposit: 500}
	require.NoError(t, m.TokenPut(acct))

	loaded, ok, err := m.TokenGet(owner, mint)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), loaded.Amount)
	require.Equal(t, uint64(500), loaded.Deposit)

	require.NoError(t, m.TokenDelete(owner, mint))
	_, ok, err = m.TokenGet(owner, mint)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerPoolRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	owner := [20]byte{0x01}
	uid := uuid.MustParse("4dbd371c-b260-4b9c-90a6-2c94432f1a57")
	id, bump := amm.DerivePoolAddress(owner, uid)
	_, escrowBump := amm.DeriveEscrowAddress(id)

	pool := &amm.Pool{
		Owner:      owner,
		UUID:       uid,
		SpotPrice:  1_000_000,
		CurveType:  amm.CurveLinear,
		LPFeeBps:   200,
		Allowlists: []amm.Allowlist{{Kind: amm.AllowlistMint, Value: [32]byte{0xAB}}},
		Bump:       bump,
		EscrowBump: escrowBump,
	}
	require.NoError(t, m.PoolPut(pool))

	loaded, ok, err := m.PoolGet(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pool.SpotPrice, loaded.SpotPrice)
	require.Equal(t, pool.Allowlists, loaded.Allowlists)
	require.Equal(t, id, loaded.Address(), "stored bump reproduces the address")

	require.NoError(t, m.PoolDelete(id))
	_, ok, err = m.PoolGet(id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerKeysDoNotCollide(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := [20]byte{0x01}

	require.NoError(t, m.PutAccount(addr, &types.Account{Balance: 9}))
	require.NoError(t, m.TokenPut(&token.Account{Owner: addr, Mint: [32]byte{}, Amount: 1}))

	acc, err := m.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(9), acc.Balance)

	acct, ok, err := m.TokenGet(addr, [32]byte{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), acct.Amount)
}
