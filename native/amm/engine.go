package amm

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"nftamm/core/events"
	"nftamm/core/types"
	"nftamm/crypto"
	nativecommon "nftamm/native/common"
	"nftamm/native/token"
	"nftamm/observability"
)

const ammModuleName = "amm"

// DefaultPoolKeepAliveBalance is the minimum escrow balance that keeps a
// depleted pool account alive. At or below it, a pool configured not to
// reinvest is reclaimed after settlement.
const DefaultPoolKeepAliveBalance uint64 = 890_880

// engineState is the persistence backend consumed by the engine. The host
// guarantees that operations touching the same pool are serialized; the
// engine performs no locking of its own.
type engineState interface {
	PoolGet(id [20]byte) (*Pool, bool, error)
	PoolPut(*Pool) error
	PoolDelete(id [20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	TokenGet(owner [20]byte, mint [32]byte) (*token.Account, bool, error)
	TokenPut(*token.Account) error
	TokenDelete(owner [20]byte, mint [32]byte) error
}

// Engine orchestrates order fulfillment against liquidity pools: allowlist
// gating, curve pricing, fee splitting, escrow settlement and pool lifecycle.
type Engine struct {
	state     engineState
	gate      Gate
	emitter   events.Emitter
	logger    *slog.Logger
	nowFn     func() int64
	pauses    nativecommon.PauseView
	keepAlive uint64
}

// NewEngine constructs an engine with the default rule gate and a no-op
// emitter. Callers wire state, emitter and logger via the setters.
func NewEngine() *Engine {
	return &Engine{
		gate:      RuleGate{},
		emitter:   events.NoopEmitter{},
		logger:    slog.Default(),
		nowFn:     func() int64 { return time.Now().Unix() },
		keepAlive: DefaultPoolKeepAliveBalance,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetGate overrides the allowlist gate. Passing nil restores the default
// rule gate.
func (e *Engine) SetGate(gate Gate) {
	if gate == nil {
		e.gate = RuleGate{}
		return
	}
	e.gate = gate
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the logger. Passing nil restores the default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.Default()
		return
	}
	e.logger = logger
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses configures the module pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetKeepAliveBalance overrides the pool reclamation threshold.
func (e *Engine) SetKeepAliveBalance(amount uint64) { e.keepAlive = amount }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(ammEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// FulfillBuyArgs describes one sell-side fulfillment: a seller sells
// AssetAmount units of AssetMint into the pool against its buyside payment
// liquidity. The owner, cosigner and referral handles were validated by the
// host; the engine re-checks them against the pool record.
type FulfillBuyArgs struct {
	PoolID            [20]byte
	Seller            [20]byte
	Owner             [20]byte
	Cosigner          [20]byte
	Referral          [20]byte
	AssetMint         [32]byte
	AssetMetadata     *Metadata
	AssetMasterRecord *MasterRecord
	AssetAmount       uint64
	MinPaymentAmount  uint64
}

// FulfillReceipt is the machine-readable settlement record returned to the
// caller.
type FulfillReceipt struct {
	RoyaltyPaid uint64
	TotalPrice  uint64
}

// FulfillBuy executes one fulfillment as an atomic unit of work: either every
// asset and fund movement lands, or the call fails with no observable state
// change.
func (e *Engine) FulfillBuy(args FulfillBuyArgs) (*FulfillReceipt, error) {
	started := time.Now()
	receipt, err := e.fulfillBuy(args)
	if err != nil {
		observability.AMM().RecordFulfillRejected(time.Since(started))
		return nil, err
	}
	observability.AMM().RecordFulfillSettled(receipt.TotalPrice, receipt.RoyaltyPaid, time.Since(started))
	return receipt, nil
}

func (e *Engine) fulfillBuy(args FulfillBuyArgs) (*FulfillReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, ammModuleName); err != nil {
		return nil, err
	}
	stored, ok, err := e.state.PoolGet(args.PoolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	pool := stored.Clone()
	if err := validateFulfillAccounts(pool, &args); err != nil {
		return nil, err
	}
	if pool.Expiry != 0 && pool.Expiry <= e.now() {
		return nil, ErrExpired
	}
	if err := e.gate.Check(pool.Allowlists, args.AssetMint, args.AssetMetadata, args.AssetMasterRecord); err != nil {
		return nil, err
	}

	totalPrice, nextSpotPrice, err := TotalPriceAndNextPrice(pool, args.AssetAmount, true)
	if err != nil {
		return nil, err
	}

	poolAuth := crypto.NewDerivedAuthority(PoolSeedPrefix, pool.Bump, pool.Owner[:], pool.UUID[:])
	if poolAuth.Address() != args.PoolID {
		return nil, fmt.Errorf("amm engine: pool bump does not reproduce pool address")
	}
	escrowAddr := pool.EscrowAddress()
	escrowAuth := crypto.NewDerivedAuthority(BuysideEscrowSeedPrefix, pool.EscrowBump, args.PoolID[:])

	st := newStaging(e.state)
	ledger := token.NewLedger(st)
	var pending []*types.Event

	escrowAcc, err := st.GetAccount(escrowAddr)
	if err != nil {
		return nil, err
	}
	lpFee, err := LPFee(pool, escrowAcc.Balance, totalPrice)
	if err != nil {
		return nil, err
	}
	referralFee, err := ReferralFee(pool, totalPrice)
	if err != nil {
		return nil, err
	}

	// Move the traded asset into pool inventory, or straight through to the
	// owner when the pool does not reinvest.
	assetTo := pool.Owner
	if pool.ReinvestFulfillBuy {
		assetTo = args.PoolID
	}
	sellerAuth := crypto.KeyAuthority(args.Seller)
	if _, err := ledger.Ensure(assetTo, args.AssetMint, args.Seller); err != nil {
		return nil, err
	}
	if err := ledger.Transfer(args.AssetMint, args.AssetAmount, args.Seller, assetTo, sellerAuth); err != nil {
		return nil, err
	}
	if pool.ReinvestFulfillBuy {
		pool.SellsideAssetAmount, err = checkedAdd(pool.SellsideAssetAmount, args.AssetAmount)
		if err != nil {
			return nil, err
		}
	}

	// The seller's emptied source account is closed with the deposit going
	// back to the seller.
	sellerBalance, err := ledger.Balance(args.Seller, args.AssetMint)
	if err != nil {
		return nil, err
	}
	if sellerBalance == 0 {
		if err := ledger.Close(args.Seller, args.AssetMint, args.Seller, sellerAuth); err != nil {
			return nil, err
		}
	}
	// A non-reinvesting pool has no use for an empty sellside escrow; its
	// deposit goes to the seller who caused the trade, not the owner.
	if !pool.ReinvestFulfillBuy {
		acct, ok, err := st.TokenGet(args.PoolID, args.AssetMint)
		if err != nil {
			return nil, err
		}
		if ok && acct.Amount == 0 {
			if err := ledger.Close(args.PoolID, args.AssetMint, args.Seller, poolAuth); err != nil {
				return nil, err
			}
			pending = append(pending, NewEscrowClosedEvent(args.PoolID, args.AssetMint, args.Seller))
		}
	}

	// Re-check the caller's slippage bound against post-fee proceeds. This
	// closes the front-running window between quote time and settlement time.
	paymentAmount, err := checkedSub(totalPrice, lpFee)
	if err != nil {
		return nil, err
	}
	paymentAmount, err = checkedSub(paymentAmount, referralFee)
	if err != nil {
		return nil, err
	}
	if paymentAmount < args.MinPaymentAmount {
		return nil, ErrInvalidRequestedPrice
	}

	// Every outgoing payment is authorized by the escrow's derivation proof,
	// never a human signature.
	if err := transferNative(st, escrowAddr, args.Seller, paymentAmount, escrowAuth); err != nil {
		return nil, err
	}
	if lpFee > 0 {
		if err := transferNative(st, escrowAddr, pool.Owner, lpFee, escrowAuth); err != nil {
			return nil, err
		}
	}
	if referralFee > 0 {
		if err := transferNative(st, escrowAddr, pool.Referral, referralFee, escrowAuth); err != nil {
			return nil, err
		}
	}

	pool.SellsideOrdersCount, err = checkedAdd(pool.SellsideOrdersCount, args.AssetAmount)
	if err != nil {
		return nil, err
	}
	pool.LPFeeEarned, err = checkedAdd(pool.LPFeeEarned, lpFee)
	if err != nil {
		return nil, err
	}
	pool.SpotPrice = nextSpotPrice

	// Creator royalty is computed against the gross price, independent of the
	// fee splits above.
	var creators []Creator
	if args.AssetMetadata != nil {
		creators = args.AssetMetadata.Creators
	}
	shares, royaltyPaid, err := CreatorRoyaltyShares(pool.BuysideCreatorRoyaltyBps, totalPrice, creators)
	if err != nil {
		return nil, err
	}
	for _, share := range shares {
		if err := transferNative(st, escrowAddr, share.Address, share.Amount, escrowAuth); err != nil {
			return nil, err
		}
	}

	if err := st.PoolPut(pool); err != nil {
		return nil, err
	}
	closedEvt, err := e.tryClosePool(st, pool, args.PoolID, escrowAddr)
	if err != nil {
		return nil, err
	}

	if err := st.Commit(); err != nil {
		return nil, err
	}

	receipt := &FulfillReceipt{RoyaltyPaid: royaltyPaid, TotalPrice: totalPrice}
	for _, evt := range pending {
		e.emit(evt)
	}
	e.emit(NewFulfilledEvent(args.PoolID, args.Seller, args.AssetMint, args.AssetAmount, receipt, paymentAmount, lpFee, referralFee, nextSpotPrice))
	if closedEvt != nil {
		e.emit(closedEvt)
	}
	e.logger.Info("fulfill buy settled",
		"pool", hex.EncodeToString(args.PoolID[:]),
		"royalty_paid", royaltyPaid,
		"total_price", totalPrice,
	)
	return receipt, nil
}

func validateFulfillAccounts(pool *Pool, args *FulfillBuyArgs) error {
	if pool.Owner != args.Owner {
		return ErrInvalidOwner
	}
	if pool.Referral != args.Referral {
		return ErrInvalidReferral
	}
	if pool.Cosigner != ([20]byte{}) && pool.Cosigner != args.Cosigner {
		return ErrInvalidCosigner
	}
	if pool.PaymentMint != ([32]byte{}) {
		// This core settles native-currency pools only.
		return ErrInvalidPaymentMint
	}
	return nil
}

// tryClosePool reclaims a depleted pool. It runs only after every payment
// disbursement in the settlement, so it sees the final escrow balance.
func (e *Engine) tryClosePool(st *staging, pool *Pool, poolID, escrowAddr [20]byte) (*types.Event, error) {
	if pool.ReinvestFulfillBuy {
		return nil, nil
	}
	if pool.SellsideAssetAmount != 0 {
		return nil, nil
	}
	escrowAcc, err := st.GetAccount(escrowAddr)
	if err != nil {
		return nil, err
	}
	if escrowAcc.Balance > e.keepAlive {
		return nil, nil
	}
	reclaimed, err := checkedAdd(escrowAcc.Balance, pool.Deposit)
	if err != nil {
		return nil, err
	}
	owner, err := st.GetAccount(pool.Owner)
	if err != nil {
		return nil, err
	}
	owner.Balance, err = checkedAdd(owner.Balance, reclaimed)
	if err != nil {
		return nil, err
	}
	escrowAcc.Balance = 0
	if err := st.PutAccount(pool.Owner, owner); err != nil {
		return nil, err
	}
	if err := st.PutAccount(escrowAddr, escrowAcc); err != nil {
		return nil, err
	}
	if err := st.PoolDelete(poolID); err != nil {
		return nil, err
	}
	observability.AMM().RecordPoolClosed()
	return NewPoolClosedEvent(poolID, pool.Owner, reclaimed), nil
}

// transferNative moves native funds between accounts in the staged state. The
// authority must control the debited address.
func transferNative(st *staging, from, to [20]byte, amount uint64, auth crypto.Authority) error {
	if amount == 0 || from == to {
		return nil
	}
	if auth == nil || auth.Address() != from {
		return fmt.Errorf("amm engine: authority does not control %x", from)
	}
	src, err := st.GetAccount(from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return errEscrowUnderfunded
	}
	dst, err := st.GetAccount(to)
	if err != nil {
		return err
	}
	sum, err := checkedAdd(dst.Balance, amount)
	if err != nil {
		return err
	}
	src.Balance -= amount
	dst.Balance = sum
	if err := st.PutAccount(from, src); err != nil {
		return err
	}
	return st.PutAccount(to, dst)
}
