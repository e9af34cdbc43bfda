package amm

// AllowlistKind selects what an allowlist rule matches against.
type AllowlistKind uint8

const (
	// AllowlistEmpty is an unused rule slot; it matches nothing and is
	// skipped.
	AllowlistEmpty AllowlistKind = iota
	// AllowlistFVCA matches the asset's first verified creator address.
	AllowlistFVCA
	// AllowlistMint matches the asset mint itself.
	AllowlistMint
	// AllowlistCollection matches the asset's verified collection.
	AllowlistCollection
)

// Valid reports whether the kind is within the supported range.
func (k AllowlistKind) Valid() bool {
	switch k {
	case AllowlistEmpty, AllowlistFVCA, AllowlistMint, AllowlistCollection:
		return true
	default:
		return false
	}
}

// Allowlist is one matching rule on a pool. Address-valued rules store the
// 20-byte address left-aligned in Value.
type Allowlist struct {
	Kind  AllowlistKind `json:"kind"`
	Value [32]byte      `json:"value"`
}

// AddressValue widens a 20-byte address into an allowlist rule value.
func AddressValue(addr [20]byte) [32]byte {
	var value [32]byte
	copy(value[:], addr[:])
	return value
}

// Gate decides whether a specific asset qualifies for a pool. It is invoked
// before any fund or asset movement; a failure aborts fulfillment with no
// state change.
type Gate interface {
	Check(rules []Allowlist, mint [32]byte, metadata *Metadata, master *MasterRecord) error
}

// RuleGate is the default gate: the asset passes if any configured rule
// matches. A pool with no usable rules rejects everything.
type RuleGate struct{}

// Check implements the Gate interface.
func (RuleGate) Check(rules []Allowlist, mint [32]byte, metadata *Metadata, master *MasterRecord) error {
	for _, rule := range rules {
		switch rule.Kind {
		case AllowlistEmpty:
			continue
		case AllowlistFVCA:
			if metadata == nil {
				continue
			}
			if fvca, ok := firstVerifiedCreator(metadata.Creators); ok && AddressValue(fvca) == rule.Value {
				return nil
			}
		case AllowlistMint:
			if rule.Value == mint {
				return nil
			}
		case AllowlistCollection:
			if metadata == nil || metadata.Collection == nil {
				continue
			}
			if rule.Value == *metadata.Collection {
				return nil
			}
		default:
			return ErrInvalidAllowlist
		}
	}
	return ErrInvalidAllowlist
}

func firstVerifiedCreator(creators []Creator) ([20]byte, bool) {
	for _, creator := range creators {
		if creator.Verified {
			return creator.Address, true
		}
	}
	return [20]byte{}, false
}
