package amm

// RoyaltyShare is one computed creator payout.
type RoyaltyShare struct {
	Address [20]byte
	Amount  uint64
}

// CreatorRoyaltyShares fans royaltyBps of the gross totalPrice out across the
// configured creators pro rata to their ShareBps. Division truncates, zero
// amounts are dropped, and the distributed sum never exceeds the royalty pot.
func CreatorRoyaltyShares(royaltyBps uint32, totalPrice uint64, creators []Creator) ([]RoyaltyShare, uint64, error) {
	if royaltyBps == 0 || len(creators) == 0 {
		return nil, 0, nil
	}
	pot, err := bpShare(totalPrice, royaltyBps)
	if err != nil {
		return nil, 0, err
	}
	if pot == 0 {
		return nil, 0, nil
	}
	shares := make([]RoyaltyShare, 0, len(creators))
	var paid uint64
	for _, creator := range creators {
		amount, err := mulDiv(pot, uint64(creator.ShareBps), basisPointsDenom)
		if err != nil {
			return nil, 0, err
		}
		if amount == 0 {
			continue
		}
		paid, err = checkedAdd(paid, amount)
		if err != nil {
			return nil, 0, err
		}
		shares = append(shares, RoyaltyShare{Address: creator.Address, Amount: amount})
	}
	return shares, paid, nil
}
