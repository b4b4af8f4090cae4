package vnpay

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderStub struct {
	txnRef string
	amount float64
	err    error
	calls  int
}

func (r *recorderStub) RecordPending(_ context.Context, txnRef string, amount float64, _ string) error {
	r.calls++
	r.txnRef = txnRef
	r.amount = amount
	return r.err
}

func testBuilder(t *testing.T, pending PendingRecorder) (*Builder, *Signer) {
	t.Helper()

	signer, err := NewSigner("supersecret")
	require.NoError(t, err)

	cfg := Config{
		TmnCode:   "TEST01",
		PayURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL: "https://shop.example.com/payment/vnpay_return",
		IpnURL:    "https://shop.example.com/payment/vnpay_ipn",
	}
	return NewBuilder(cfg, signer, pending), signer
}

func TestBuilder_BuildRedirect(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	t.Run("Rejects bad amounts", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		for _, amount := range []float64{0, -100, math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, _, err := b.BuildRedirect(context.Background(), BuildInput{Amount: amount}, now)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("Assembles signed parameters", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		redirect, params, err := b.BuildRedirect(context.Background(), BuildInput{
			Amount:    199000,
			TxnRef:    "ORD-1001",
			OrderInfo: "Thanh toan don hang 1001",
			BankCode:  "NCB",
			ClientIP:  "203.0.113.7",
		}, now)
		require.NoError(t, err)

		assert.Equal(t, "2.1.0", params[FieldVersion])
		assert.Equal(t, "pay", params[FieldCommand])
		assert.Equal(t, "TEST01", params[FieldTmnCode])
		assert.Equal(t, "VND", params[FieldCurrCode])
		assert.Equal(t, "vn", params[FieldLocale])
		assert.Equal(t, "other", params[FieldOrderType])
		assert.Equal(t, "ORD-1001", params[FieldTxnRef])
		assert.Equal(t, "19900000", params[FieldAmount])
		assert.Equal(t, "20260828103000", params[FieldCreateDate])
		assert.Equal(t, "20260828104500", params[FieldExpireDate])
		assert.Equal(t, "NCB", params[FieldBankCode])
		assert.Equal(t, "203.0.113.7", params[FieldIPAddr])
		assert.Equal(t, "https://shop.example.com/payment/vnpay_return", params[FieldReturnURL])
		assert.Equal(t, "https://shop.example.com/payment/vnpay_ipn", params[FieldIpnURL])

		assert.True(t, strings.HasPrefix(redirect, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))
		assert.Contains(t, redirect, FieldSecureHashType+"="+HashAlgorithm)
		assert.Contains(t, redirect, FieldSecureHash+"=")
	})

	t.Run("Redirect query verifies round trip", func(t *testing.T) {
		b, signer := testBuilder(t, nil)

		redirect, _, err := b.BuildRedirect(context.Background(), BuildInput{
			Amount:    199000,
			OrderInfo: "Don hang test: gio hang #7",
			ClientIP:  "203.0.113.7",
		}, now)
		require.NoError(t, err)

		query := redirect[strings.IndexByte(redirect, '?')+1:]
		values, err := url.ParseQuery(query)
		require.NoError(t, err)

		result := NewVerifier(signer).Verify(ParamsFromValues(values))
		assert.True(t, result.Valid)
	})

	t.Run("Generates txnRef when absent", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		_, first, err := b.BuildRedirect(context.Background(), BuildInput{Amount: 100}, now)
		require.NoError(t, err)
		_, second, err := b.BuildRedirect(context.Background(), BuildInput{Amount: 100}, now)
		require.NoError(t, err)

		assert.NotEmpty(t, first[FieldTxnRef])
		assert.True(t, strings.HasPrefix(first[FieldTxnRef], "20260828103000"))
		assert.NotEqual(t, first[FieldTxnRef], second[FieldTxnRef])
	})

	t.Run("Bank code omitted when empty", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		_, params, err := b.BuildRedirect(context.Background(), BuildInput{Amount: 100}, now)
		require.NoError(t, err)

		_, hasBank := params[FieldBankCode]
		assert.False(t, hasBank)
	})

	t.Run("Local notify URL silently omitted", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		_, params, err := b.BuildRedirect(context.Background(), BuildInput{
			Amount: 100,
			IpnURL: "http://localhost:8080/payment/vnpay_ipn",
		}, now)
		require.NoError(t, err)

		_, hasIpn := params[FieldIpnURL]
		assert.False(t, hasIpn)
	})

	t.Run("Public notify override included", func(t *testing.T) {
		b, _ := testBuilder(t, nil)

		_, params, err := b.BuildRedirect(context.Background(), BuildInput{
			Amount: 100,
			IpnURL: "https://hooks.example.org/ipn",
		}, now)
		require.NoError(t, err)

		assert.Equal(t, "https://hooks.example.org/ipn", params[FieldIpnURL])
	})

	t.Run("Pending order recorded", func(t *testing.T) {
		rec := &recorderStub{}
		b, _ := testBuilder(t, rec)

		_, params, err := b.BuildRedirect(context.Background(), BuildInput{Amount: 199000}, now)
		require.NoError(t, err)

		assert.Equal(t, 1, rec.calls)
		assert.Equal(t, params[FieldTxnRef], rec.txnRef)
		assert.Equal(t, 199000.0, rec.amount)
	})

	t.Run("Pending failure does not block redirect", func(t *testing.T) {
		rec := &recorderStub{err: errors.New("store down")}
		b, _ := testBuilder(t, rec)

		redirect, _, err := b.BuildRedirect(context.Background(), BuildInput{Amount: 199000}, now)
		assert.NoError(t, err)
		assert.NotEmpty(t, redirect)
		assert.Equal(t, 1, rec.calls)
	})
}

func TestIsPubliclyRoutable(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"https://shop.example.com/ipn", true},
		{"https://203.0.113.7/ipn", true},
		{"http://localhost:3000/ipn", false},
		{"http://127.0.0.1/ipn", false},
		{"http://[::1]:8080/ipn", false},
		{"http://10.1.2.3/ipn", false},
		{"http://192.168.1.20:8080/ipn", false},
		{"http://mybox.local/ipn", false},
		{"http://0.0.0.0/ipn", false},
		{"", false},
		{"::missing-scheme", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, isPubliclyRoutable(tc.raw), "url %q", tc.raw)
	}
}

func TestNewTxnRef(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	ref := NewTxnRef(now)
	assert.Len(t, ref, 18)
	assert.True(t, strings.HasPrefix(ref, "20260828103000"))
}
