package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nftamm/crypto"
	"nftamm/native/amm"
	nativecommon "nftamm/native/common"
	"nftamm/observability"
)

// Engine is the settlement surface the server exposes over HTTP.
type Engine interface {
	FulfillBuy(amm.FulfillBuyArgs) (*amm.FulfillReceipt, error)
	ChangeSpotPrice(amm.ChangeSpotPriceArgs) error
	WithdrawSell(amm.WithdrawSellArgs) error
}

// Server translates JSON requests into engine calls. Account handles travel as
// bech32 strings, mints as hex.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewServer constructs a server around the supplied engine.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// Handler returns the HTTP mux for the settlement API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/amm/fulfill-buy", s.handleFulfillBuy)
	mux.HandleFunc("POST /v1/amm/change-spot-price", s.handleChangeSpotPrice)
	mux.HandleFunc("POST /v1/amm/withdraw-sell", s.handleWithdrawSell)
	return mux
}

type creatorPayload struct {
	Address  string `json:"address"`
	ShareBps uint16 `json:"shareBps"`
	Verified bool   `json:"verified"`
}

type metadataPayload struct {
	Mint       string           `json:"mint"`
	Collection string           `json:"collection,omitempty"`
	Creators   []creatorPayload `json:"creators,omitempty"`
}

type fulfillBuyRequest struct {
	Pool             string           `json:"pool"`
	Seller           string           `json:"seller"`
	Owner            string           `json:"owner"`
	Cosigner         string           `json:"cosigner,omitempty"`
	Referral         string           `json:"referral"`
	AssetMint        string           `json:"assetMint"`
	AssetMetadata    *metadataPayload `json:"assetMetadata,omitempty"`
	MasterEdition    bool             `json:"masterEdition,omitempty"`
	AssetAmount      uint64           `json:"assetAmount"`
	MinPaymentAmount uint64           `json:"minPaymentAmount"`
}

type fulfillBuyResponse struct {
	RoyaltyPaid uint64 `json:"royaltyPaid"`
	TotalPrice  uint64 `json:"totalPrice"`
}

type changeSpotPriceRequest struct {
	Pool     string `json:"pool"`
	Owner    string `json:"owner"`
	Cosigner string `json:"cosigner,omitempty"`
	Price    uint64 `json:"price"`
}

type withdrawSellRequest struct {
	Pool        string `json:"pool"`
	Owner       string `json:"owner"`
	Cosigner    string `json:"cosigner,omitempty"`
	AssetMint   string `json:"assetMint"`
	AssetAmount uint64 `json:"assetAmount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleFulfillBuy(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req fulfillBuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	args := amm.FulfillBuyArgs{
		AssetAmount:      req.AssetAmount,
		MinPaymentAmount: req.MinPaymentAmount,
	}
	var err error
	if args.PoolID, err = decodeHandle(req.Pool); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args.Seller, err = decodeHandle(req.Seller); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args.Owner, err = decodeHandle(req.Owner); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args.Referral, err = decodeHandle(req.Referral); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Cosigner != "" {
		if args.Cosigner, err = decodeHandle(req.Cosigner); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if args.AssetMint, err = decodeMint(req.AssetMint); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.AssetMetadata != nil {
		meta, err := decodeMetadata(req.AssetMetadata)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		args.AssetMetadata = meta
	}
	if req.MasterEdition {
		args.AssetMasterRecord = &amm.MasterRecord{Mint: args.AssetMint}
	}

	receipt, err := s.engine.FulfillBuy(args)
	observability.ModuleAPI().Observe("amm", "fulfill_buy", statusFor(err), time.Since(started))
	if err != nil {
		s.writeEngineError(w, "fulfill_buy", err)
		return
	}
	writeJSON(w, http.StatusOK, fulfillBuyResponse{RoyaltyPaid: receipt.RoyaltyPaid, TotalPrice: receipt.TotalPrice})
}

func (s *Server) handleChangeSpotPrice(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req changeSpotPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	args := amm.ChangeSpotPriceArgs{Price: req.Price}
	var err error
	if args.PoolID, err = decodeHandle(req.Pool); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args.Owner, err = decodeHandle(req.Owner); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Cosigner != "" {
		if args.Cosigner, err = decodeHandle(req.Cosigner); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	err = s.engine.ChangeSpotPrice(args)
	observability.ModuleAPI().Observe("amm", "change_spot_price", statusFor(err), time.Since(started))
	if err != nil {
		s.writeEngineError(w, "change_spot_price", err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleWithdrawSell(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req withdrawSellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	args := amm.WithdrawSellArgs{AssetAmount: req.AssetAmount}
	var err error
	if args.PoolID, err = decodeHandle(req.Pool); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if args.Owner, err = decodeHandle(req.Owner); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Cosigner != "" {
		if args.Cosigner, err = decodeHandle(req.Cosigner); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if args.AssetMint, err = decodeMint(req.AssetMint); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.engine.WithdrawSell(args)
	observability.ModuleAPI().Observe("amm", "withdraw_sell", statusFor(err), time.Since(started))
	if err != nil {
		s.writeEngineError(w, "withdraw_sell", err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func decodeHandle(addr string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(addr)
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func decodeMint(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(value)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, errors.New("mint must be 32 bytes of hex")
	}
	copy(out[:], raw)
	return out, nil
}

func decodeMetadata(payload *metadataPayload) (*amm.Metadata, error) {
	meta := &amm.Metadata{}
	var err error
	if meta.Mint, err = decodeMint(payload.Mint); err != nil {
		return nil, err
	}
	if payload.Collection != "" {
		collection, err := decodeMint(payload.Collection)
		if err != nil {
			return nil, err
		}
		meta.Collection = &collection
	}
	for _, c := range payload.Creators {
		addr, err := decodeHandle(c.Address)
		if err != nil {
			return nil, err
		}
		meta.Creators = append(meta.Creators, amm.Creator{Address: addr, ShareBps: c.ShareBps, Verified: c.Verified})
	}
	return meta, nil
}

func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("settlement call failed", "operation", op, "error", err)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, amm.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, amm.ErrInvalidOwner),
		errors.Is(err, amm.ErrInvalidReferral),
		errors.Is(err, amm.ErrInvalidCosigner),
		errors.Is(err, amm.ErrInvalidPaymentMint),
		errors.Is(err, amm.ErrInvalidAllowlist):
		return http.StatusForbidden
	case errors.Is(err, amm.ErrExpired),
		errors.Is(err, amm.ErrInvalidRequestedPrice),
		errors.Is(err, amm.ErrNumericOverflow):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
