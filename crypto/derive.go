package crypto

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Derived addresses give the settlement program authority over accounts it
// escrows without holding key material. An address is the keccak hash of a
// seed prefix, the seed material and a bump byte; the bump is itself derived
// from the seed hash, so any collaborator can re-verify a derivation from the
// same inputs.

func hashSeeds(prefix string, seeds [][]byte, tail []byte) []byte {
	buf := make([]byte, 0, len(prefix)+1+len(tail)+len(seeds)*32)
	buf = append(buf, prefix...)
	buf = append(buf, 0x00)
	for _, seed := range seeds {
		buf = append(buf, seed...)
	}
	buf = append(buf, tail...)
	return ethcrypto.Keccak256(buf)
}

func addressForBump(prefix string, seeds [][]byte, bump uint8) [20]byte {
	sum := hashSeeds(prefix, seeds, []byte{bump})
	var addr [20]byte
	copy(addr[:], sum[12:])
	return addr
}

// DeriveAddress returns the canonical derived address and bump for the seed
// material. The derivation is deterministic and key-less.
func DeriveAddress(prefix string, seeds ...[]byte) ([20]byte, uint8) {
	base := hashSeeds(prefix, seeds, nil)
	bump := base[31]
	return addressForBump(prefix, seeds, bump), bump
}

// VerifyDerivation reports whether addr is the derivation of the supplied
// seeds under the given bump.
func VerifyDerivation(addr [20]byte, bump uint8, prefix string, seeds ...[]byte) bool {
	return addressForBump(prefix, seeds, bump) == addr
}

// Authority authorizes outbound movement from a single address. Engines
// compare Address() against the debited account; they never see signatures or
// key material.
type Authority interface {
	Address() [20]byte
}

// KeyAuthority is the authority carried by a transaction signer whose
// signature the host validated before the engine ran.
type KeyAuthority [20]byte

// Address implements the Authority interface.
func (k KeyAuthority) Address() [20]byte { return [20]byte(k) }

// DerivedAuthority is the capability a program exercises over its own derived
// accounts: identity plus a derivation proof instead of a signature.
type DerivedAuthority struct {
	addr [20]byte
}

// NewDerivedAuthority builds the authority for the address derived from the
// seeds under the given bump.
func NewDerivedAuthority(prefix string, bump uint8, seeds ...[]byte) DerivedAuthority {
	return DerivedAuthority{addr: addressForBump(prefix, seeds, bump)}
}

// Address implements the Authority interface.
func (d DerivedAuthority) Address() [20]byte { return d.addr }
