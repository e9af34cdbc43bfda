package amm

import (
	"encoding/hex"
	"fmt"

	"nftamm/crypto"
	nativecommon "nftamm/native/common"
	"nftamm/native/token"
)

// ChangeSpotPriceArgs describes an owner-driven re-quote of a pool.
type ChangeSpotPriceArgs struct {
	PoolID   [20]byte
	Owner    [20]byte
	Cosigner [20]byte
	Price    uint64
}

// ChangeSpotPrice repoints the pool's curve at a new spot price. Only the
// recorded owner may re-quote; when the pool carries a cosigner, the cosigner
// must countersign as well.
func (e *Engine) ChangeSpotPrice(args ChangeSpotPriceArgs) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, ammModuleName); err != nil {
		return err
	}
	stored, ok, err := e.state.PoolGet(args.PoolID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}
	pool := stored.Clone()
	if pool.Owner != args.Owner {
		return ErrInvalidOwner
	}
	if pool.Cosigner != ([20]byte{}) && pool.Cosigner != args.Cosigner {
		return ErrInvalidCosigner
	}
	if args.Price == 0 {
		return ErrInvalidRequestedPrice
	}
	oldPrice := pool.SpotPrice
	pool.SpotPrice = args.Price
	sanitized, err := SanitizePool(pool)
	if err != nil {
		return err
	}
	if err := e.state.PoolPut(sanitized); err != nil {
		return err
	}
	e.emit(NewSpotPriceChangedEvent(args.PoolID, oldPrice, args.Price))
	e.logger.Info("spot price changed",
		"pool", hex.EncodeToString(args.PoolID[:]),
		"old_price", oldPrice,
		"new_price", args.Price,
	)
	return nil
}

// WithdrawSellArgs describes an owner withdrawal of sellside inventory.
type WithdrawSellArgs struct {
	PoolID      [20]byte
	Owner       [20]byte
	Cosigner    [20]byte
	AssetMint   [32]byte
	AssetAmount uint64
}

// WithdrawSell moves AssetAmount units of AssetMint out of the pool's sellside
// escrow back to the owner, closing the escrow record when it empties. A pool
// left with no inventory and a dusted buyside escrow is reclaimed, same as
// after a fulfillment.
func (e *Engine) WithdrawSell(args WithdrawSellArgs) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, ammModuleName); err != nil {
		return err
	}
	stored, ok, err := e.state.PoolGet(args.PoolID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPoolNotFound
	}
	pool := stored.Clone()
	if pool.Owner != args.Owner {
		return ErrInvalidOwner
	}
	if pool.Cosigner != ([20]byte{}) && pool.Cosigner != args.Cosigner {
		return ErrInvalidCosigner
	}
	if args.AssetAmount == 0 {
		return fmt.Errorf("amm engine: withdrawal amount must be positive")
	}

	poolAuth := crypto.NewDerivedAuthority(PoolSeedPrefix, pool.Bump, pool.Owner[:], pool.UUID[:])
	if poolAuth.Address() != args.PoolID {
		return fmt.Errorf("amm engine: pool bump does not reproduce pool address")
	}
	escrowAddr := pool.EscrowAddress()

	st := newStaging(e.state)
	ledger := token.NewLedger(st)

	if _, err := ledger.Ensure(pool.Owner, args.AssetMint, pool.Owner); err != nil {
		return err
	}
	if err := ledger.Transfer(args.AssetMint, args.AssetAmount, args.PoolID, pool.Owner, poolAuth); err != nil {
		return err
	}
	pool.SellsideAssetAmount, err = checkedSub(pool.SellsideAssetAmount, args.AssetAmount)
	if err != nil {
		return err
	}

	var escrowClosed bool
	remaining, err := ledger.Balance(args.PoolID, args.AssetMint)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := ledger.Close(args.PoolID, args.AssetMint, pool.Owner, poolAuth); err != nil {
			return err
		}
		escrowClosed = true
	}

	if err := st.PoolPut(pool); err != nil {
		return err
	}
	closedEvt, err := e.tryClosePool(st, pool, args.PoolID, escrowAddr)
	if err != nil {
		return err
	}
	if err := st.Commit(); err != nil {
		return err
	}

	e.emit(NewWithdrawalEvent(args.PoolID, args.AssetMint, args.AssetAmount))
	if escrowClosed {
		e.emit(NewEscrowClosedEvent(args.PoolID, args.AssetMint, pool.Owner))
	}
	if closedEvt != nil {
		e.emit(closedEvt)
	}
	e.logger.Info("sellside withdrawal settled",
		"pool", hex.EncodeToString(args.PoolID[:]),
		"asset_amount", args.AssetAmount,
	)
	return nil
}
