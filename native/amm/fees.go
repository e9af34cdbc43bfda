package amm

// LPFee computes the liquidity-provider fee for a trade of totalPrice. The
// fee is LPFeeBps of the total, truncated to the available escrow balance: a
// pool never promises more fee than its escrow holds, and the truncation is
// policy, not an error.
func LPFee(pool *Pool, escrowBalance, totalPrice uint64) (uint64, error) {
	fee, err := bpShare(totalPrice, pool.LPFeeBps)
	if err != nil {
		return 0, err
	}
	if fee > escrowBalance {
		fee = escrowBalance
	}
	return fee, nil
}

// ReferralFee computes the referral fee for a trade of totalPrice; zero when
// the pool has no referral basis points configured.
func ReferralFee(pool *Pool, totalPrice uint64) (uint64, error) {
	if pool.ReferralBps == 0 {
		return 0, nil
	}
	return bpShare(totalPrice, pool.ReferralBps)
}
