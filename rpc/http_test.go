package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nftamm/crypto"
	"nftamm/native/amm"
)

type stubEngine struct {
	fulfillArgs *amm.FulfillBuyArgs
	fulfillErr  error
	changeArgs  *amm.ChangeSpotPriceArgs
	withdraw    *amm.WithdrawSellArgs
}

func (s *stubEngine) FulfillBuy(args amm.FulfillBuyArgs) (*amm.FulfillReceipt, error) {
	s.fulfillArgs = &args
	if s.fulfillErr != nil {
		return nil, s.fulfillErr
	}
	return &amm.FulfillReceipt{RoyaltyPaid: 50_000, TotalPrice: 1_000_000}, nil
}

func (s *stubEngine) ChangeSpotPrice(args amm.ChangeSpotPriceArgs) error {
	s.changeArgs = &args
	return nil
}

func (s *stubEngine) WithdrawSell(args amm.WithdrawSellArgs) error {
	s.withdraw = &args
	return nil
}

func encodeAddr(fill byte) string {
	raw := bytes.Repeat([]byte{fill}, 20)
	return crypto.NewAddress(crypto.AMMPrefix, raw).String()
}

func post(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestFulfillBuyEndpoint(t *testing.T) {
	engine := &stubEngine{}
	handler := NewServer(engine, nil).Handler()

	rec := post(t, handler, "/v1/amm/fulfill-buy", map[string]any{
		"pool":             encodeAddr(0x01),
		"seller":           encodeAddr(0x02),
		"owner":            encodeAddr(0x03),
		"referral":         encodeAddr(0x04),
		"assetMint":        "abababababababababababababababababababababababababababababababab",
		"assetAmount":      1,
		"minPaymentAmount": 960000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}

	var resp fulfillBuyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalPrice != 1_000_000 || resp.RoyaltyPaid != 50_000 {
		t.Fatalf("response: %+v", resp)
	}

	if engine.fulfillArgs == nil {
		t.Fatalf("engine not invoked")
	}
	if engine.fulfillArgs.AssetAmount != 1 || engine.fulfillArgs.MinPaymentAmount != 960_000 {
		t.Fatalf("args: %+v", engine.fulfillArgs)
	}
	if engine.fulfillArgs.Seller != [20]byte(bytes.Repeat([]byte{0x02}, 20)) {
		t.Fatalf("seller decoded incorrectly: %x", engine.fulfillArgs.Seller)
	}
}

func TestFulfillBuyEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: amm.ErrPoolNotFound, want: http.StatusNotFound},
		{err: amm.ErrInvalidOwner, want: http.StatusForbidden},
		{err: amm.ErrInvalidAllowlist, want: http.StatusForbidden},
		{err: amm.ErrExpired, want: http.StatusConflict},
		{err: amm.ErrInvalidRequestedPrice, want: http.StatusConflict},
	}
	for _, tc := range cases {
		engine := &stubEngine{fulfillErr: tc.err}
		handler := NewServer(engine, nil).Handler()
		rec := post(t, handler, "/v1/amm/fulfill-buy", map[string]any{
			"pool":        encodeAddr(0x01),
			"seller":      encodeAddr(0x02),
			"owner":       encodeAddr(0x03),
			"referral":    encodeAddr(0x04),
			"assetMint":   "abababababababababababababababababababababababababababababababab",
			"assetAmount": 1,
		})
		if rec.Code != tc.want {
			t.Fatalf("%v: status got %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestFulfillBuyEndpointRejectsBadAddress(t *testing.T) {
	handler := NewServer(&stubEngine{}, nil).Handler()
	rec := post(t, handler, "/v1/amm/fulfill-buy", map[string]any{
		"pool":      "not-an-address",
		"seller":    encodeAddr(0x02),
		"owner":     encodeAddr(0x03),
		"referral":  encodeAddr(0x04),
		"assetMint": "ab",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestChangeSpotPriceEndpoint(t *testing.T) {
	engine := &stubEngine{}
	handler := NewServer(engine, nil).Handler()

	rec := post(t, handler, "/v1/amm/change-spot-price", map[string]any{
		"pool":  encodeAddr(0x01),
		"owner": encodeAddr(0x03),
		"price": 1250000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if engine.changeArgs == nil || engine.changeArgs.Price != 1_250_000 {
		t.Fatalf("args: %+v", engine.changeArgs)
	}
}

func TestWithdrawSellEndpoint(t *testing.T) {
	engine := &stubEngine{}
	handler := NewServer(engine, nil).Handler()

	rec := post(t, handler, "/v1/amm/withdraw-sell", map[string]any{
		"pool":        encodeAddr(0x01),
		"owner":       encodeAddr(0x03),
		"assetMint":   "abababababababababababababababababababababababababababababababab",
		"assetAmount": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	if engine.withdraw == nil || engine.withdraw.AssetAmount != 2 {
		t.Fatalf("args: %+v", engine.withdraw)
	}
}
