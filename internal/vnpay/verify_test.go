package vnpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedCallback(t *testing.T, signer *Signer, fields Params) Params {
	t.Helper()

	_, canonical := Canonicalize(fields)
	p := fields.Clone()
	p[FieldSecureHashType] = HashAlgorithm
	p[FieldSecureHash] = signer.Sign(canonical)
	return p
}

func TestVerifier_Verify(t *testing.T) {
	signer, err := NewSigner("supersecret")
	require.NoError(t, err)
	verifier := NewVerifier(signer)

	fields := Params{
		FieldTmnCode:           "TEST01",
		FieldTxnRef:            "202608281030001234",
		FieldAmount:            "19900000",
		FieldResponseCode:      "00",
		FieldTransactionStatus: "00",
		FieldBankCode:          "NCB",
		FieldTransactionNo:     "14422574",
		FieldPayDate:           "20260828103215",
	}

	t.Run("Round trip valid", func(t *testing.T) {
		payload := signedCallback(t, signer, fields)

		result := verifier.Verify(payload)
		assert.True(t, result.Valid)
		assert.Equal(t, result.Expected, result.Received)
	})

	t.Run("Tampering any field invalidates", func(t *testing.T) {
		for key := range fields {
			payload := signedCallback(t, signer, fields)
			payload[key] = payload[key] + "x"

			result := verifier.Verify(payload)
			assert.False(t, result.Valid, "tampered field %s still verified", key)
		}
	})

	t.Run("Missing signature is invalid", func(t *testing.T) {
		payload := fields.Clone()
		payload[FieldSecureHashType] = HashAlgorithm

		result := verifier.Verify(payload)
		assert.False(t, result.Valid)
	})

	t.Run("Signature from wrong key is invalid", func(t *testing.T) {
		wrongSigner, err := NewSigner("forgedsecret")
		require.NoError(t, err)
		payload := signedCallback(t, wrongSigner, fields)

		result := verifier.Verify(payload)
		assert.False(t, result.Valid)
		assert.NotEqual(t, result.Expected, result.Received)
	})

	t.Run("Hash fields excluded from signing", func(t *testing.T) {
		// Changing the algorithm label must not break the signature.
		payload := signedCallback(t, signer, fields)
		payload[FieldSecureHashType] = "SHA256"

		result := verifier.Verify(payload)
		assert.True(t, result.Valid)
	})
}

func TestParseCallback(t *testing.T) {
	p := Params{
		FieldTxnRef:            "ref-1",
		FieldAmount:            "50000000",
		FieldResponseCode:      "00",
		FieldTransactionStatus: "00",
		FieldBankCode:          "NCB",
		FieldTransactionNo:     "123",
		FieldPayDate:           "20260828103215",
	}

	cb := ParseCallback(p)
	assert.Equal(t, "ref-1", cb.TxnRef)
	assert.Equal(t, int64(50000000), cb.AmountMinor)
	assert.Equal(t, 500000.0, cb.AmountMajor())
	assert.True(t, cb.Success())
	assert.Equal(t, p, cb.Raw)

	t.Run("Failure code", func(t *testing.T) {
		q := p.Clone()
		q[FieldResponseCode] = "24"
		assert.False(t, ParseCallback(q).Success())
	})

	t.Run("Transaction status overrides response code", func(t *testing.T) {
		q := p.Clone()
		q[FieldTransactionStatus] = "02"
		assert.False(t, ParseCallback(q).Success())
	})

	t.Run("Absent transaction status ignored", func(t *testing.T) {
		q := p.Clone()
		delete(q, FieldTransactionStatus)
		assert.True(t, ParseCallback(q).Success())
	})
}
