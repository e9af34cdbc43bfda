package amm

import "errors"

// Failure taxonomy surfaced to fulfillment callers. Every failure aborts the
// whole fulfillment with zero observable state change; retries are the
// caller's responsibility and reprice against the pool's current spot price.
var (
	ErrPoolNotFound          = errors.New("amm: pool not found")
	ErrInvalidOwner          = errors.New("amm: owner does not match pool")
	ErrInvalidReferral       = errors.New("amm: referral does not match pool")
	ErrInvalidCosigner       = errors.New("amm: cosigner does not match pool")
	ErrInvalidPaymentMint    = errors.New("amm: pool payment mint mismatch")
	ErrExpired               = errors.New("amm: pool expired")
	ErrInvalidAllowlist      = errors.New("amm: asset does not satisfy pool allowlist")
	ErrNumericOverflow       = errors.New("amm: numeric overflow")
	ErrInvalidRequestedPrice = errors.New("amm: payment below requested minimum")
)

var (
	errNilState          = errors.New("amm engine: state not configured")
	errEscrowUnderfunded = errors.New("amm engine: insufficient escrow balance")
)
