package amm

import "testing"

func TestLPFee(t *testing.T) {
	cases := []struct {
		name    string
		bps     uint32
		escrow  uint64
		total   uint64
		wantFee uint64
	}{
		{name: "zero bps", bps: 0, escrow: 1_000_000, total: 1_000_000, wantFee: 0},
		{name: "200bp", bps: 200, escrow: 5_000_000, total: 1_000_000, wantFee: 20_000},
		{name: "truncates", bps: 200, escrow: 5_000_000, total: 999, wantFee: 19},
		{name: "clamped to escrow", bps: 200, escrow: 15_000, total: 1_000_000, wantFee: 15_000},
		{name: "clamped to empty escrow", bps: 200, escrow: 0, total: 1_000_000, wantFee: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pool := &Pool{LPFeeBps: tc.bps}
			fee, err := LPFee(pool, tc.escrow, tc.total)
			if err != nil {
				t.Fatalf("lp fee: %v", err)
			}
			if fee != tc.wantFee {
				t.Fatalf("fee: got %d, want %d", fee, tc.wantFee)
			}
		})
	}
}

func TestReferralFee(t *testing.T) {
	pool := &Pool{ReferralBps: 100}
	fee, err := ReferralFee(pool, 1_000_000)
	if err != nil {
		t.Fatalf("referral fee: %v", err)
	}
	if fee != 10_000 {
		t.Fatalf("fee: got %d, want 10000", fee)
	}

	pool.ReferralBps = 0
	fee, err = ReferralFee(pool, 1_000_000)
	if err != nil {
		t.Fatalf("referral fee: %v", err)
	}
	if fee != 0 {
		t.Fatalf("fee without referral bps: got %d, want 0", fee)
	}
}
