package amm

import (
	"fmt"

	"github.com/google/uuid"

	"nftamm/crypto"
)

// CurveType selects how the spot price steps as the pool absorbs or releases
// inventory.
type CurveType uint8

const (
	// CurveLinear steps the price by a fixed delta per unit.
	CurveLinear CurveType = iota
	// CurveExponential scales the price by delta basis points per unit.
	CurveExponential
)

// Valid reports whether the curve type is within the supported range.
func (c CurveType) Valid() bool {
	switch c {
	case CurveLinear, CurveExponential:
		return true
	default:
		return false
	}
}

// Seed prefixes for the program-derived addresses owned by a pool.
const (
	PoolSeedPrefix          = "amm_pool"
	BuysideEscrowSeedPrefix = "amm_buyside_escrow"
)

// Pool is the liquidity unit quoting a price and holding escrowed funds and
// assets. It is persisted by address and destroyed when reclaimed.
type Pool struct {
	Owner    [20]byte  `json:"owner"`
	Cosigner [20]byte  `json:"cosigner"` // zero value disables the cosigner check
	Referral [20]byte  `json:"referral"`
	UUID     uuid.UUID `json:"uuid"` // discriminates multiple pools per owner

	// PaymentMint selects the pool's payment currency; the zero value is the
	// native-currency sentinel. This core settles native pools only.
	PaymentMint [32]byte `json:"paymentMint"`

	SpotPrice  uint64    `json:"spotPrice"`
	CurveType  CurveType `json:"curveType"`
	CurveDelta uint64    `json:"curveDelta"`

	LPFeeBps                 uint32 `json:"lpFeeBps"`
	ReferralBps              uint32 `json:"referralBps"`
	BuysideCreatorRoyaltyBps uint32 `json:"buysideCreatorRoyaltyBps"`

	// ReinvestFulfillBuy keeps acquired assets in pool inventory for resale;
	// when false they pass straight through to the owner.
	ReinvestFulfillBuy bool        `json:"reinvestFulfillBuy"`
	Allowlists         []Allowlist `json:"allowlists"`
	Expiry             int64       `json:"expiry"` // unix seconds, 0 = no expiry

	SellsideAssetAmount uint64 `json:"sellsideAssetAmount"`
	SellsideOrdersCount uint64 `json:"sellsideOrdersCount"`
	LPFeeEarned         uint64 `json:"lpFeeEarned"`

	// Deposit is the reclaimable amount locked when the pool account was
	// created, returned to the owner on reclamation.
	Deposit uint64 `json:"deposit"`

	// Bump values let the pool and its payment escrow act as signing
	// authorities over escrowed funds via derivation proof.
	Bump       uint8 `json:"bump"`
	EscrowBump uint8 `json:"escrowBump"`
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Allowlists != nil {
		clone.Allowlists = make([]Allowlist, len(p.Allowlists))
		copy(clone.Allowlists, p.Allowlists)
	}
	return &clone
}

// Address returns the pool's derived address for its stored bump.
func (p *Pool) Address() [20]byte {
	return crypto.NewDerivedAuthority(PoolSeedPrefix, p.Bump, p.Owner[:], p.UUID[:]).Address()
}

// EscrowAddress returns the pool's buyside payment escrow address for its
// stored escrow bump.
func (p *Pool) EscrowAddress() [20]byte {
	id := p.Address()
	return crypto.NewDerivedAuthority(BuysideEscrowSeedPrefix, p.EscrowBump, id[:]).Address()
}

// DerivePoolAddress returns the canonical pool address and bump for an owner
// and pool UUID.
func DerivePoolAddress(owner [20]byte, id uuid.UUID) ([20]byte, uint8) {
	return crypto.DeriveAddress(PoolSeedPrefix, owner[:], id[:])
}

// DeriveEscrowAddress returns the canonical buyside escrow address and bump
// for a pool address.
func DeriveEscrowAddress(pool [20]byte) ([20]byte, uint8) {
	return crypto.DeriveAddress(BuysideEscrowSeedPrefix, pool[:])
}

// SanitizePool validates and normalises a pool definition, returning a clone.
// The original value is not mutated.
func SanitizePool(p *Pool) (*Pool, error) {
	if p == nil {
		return nil, fmt.Errorf("nil pool")
	}
	clone := p.Clone()
	if !clone.CurveType.Valid() {
		return nil, fmt.Errorf("invalid curve type: %d", clone.CurveType)
	}
	if clone.LPFeeBps > basisPointsDenom {
		return nil, fmt.Errorf("lp fee bps out of range: %d", clone.LPFeeBps)
	}
	if clone.ReferralBps > basisPointsDenom {
		return nil, fmt.Errorf("referral bps out of range: %d", clone.ReferralBps)
	}
	if clone.BuysideCreatorRoyaltyBps > basisPointsDenom {
		return nil, fmt.Errorf("royalty bps out of range: %d", clone.BuysideCreatorRoyaltyBps)
	}
	for _, rule := range clone.Allowlists {
		if !rule.Kind.Valid() {
			return nil, fmt.Errorf("invalid allowlist kind: %d", rule.Kind)
		}
	}
	return clone, nil
}

// Creator is one royalty recipient configured on an asset's metadata. ShareBps
// is the creator's share of the royalty pot in basis points.
type Creator struct {
	Address  [20]byte `json:"address"`
	ShareBps uint16   `json:"shareBps"`
	Verified bool     `json:"verified"`
}

// Metadata is the asset descriptor consumed by the allowlist gate and the
// royalty distributor.
type Metadata struct {
	Mint       [32]byte  `json:"mint"`
	Collection *[32]byte `json:"collection,omitempty"` // verified collection, if any
	Creators   []Creator `json:"creators,omitempty"`
}

// MasterRecord marks an asset as a master-edition style record; the gate uses
// its presence, not its contents.
type MasterRecord struct {
	Mint      [32]byte `json:"mint"`
	MaxSupply uint64   `json:"maxSupply"`
}
