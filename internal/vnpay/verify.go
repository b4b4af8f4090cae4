package vnpay

import "crypto/hmac"

// VerificationResult reports a signature check. Expected is what this
// side computed, Received is what the gateway sent.
type VerificationResult struct {
	Valid    bool
	Expected string
	Received string
}

// Verifier recomputes callback signatures with the merchant secret.
type Verifier struct {
	signer *Signer
}

func NewVerifier(signer *Signer) *Verifier {
	return &Verifier{signer: signer}
}

// Verify strips the signature fields, canonicalizes the remainder and
// compares the recomputed digest against the received one in constant
// time. A payload without a signature is never valid.
func (v *Verifier) Verify(p Params) VerificationResult {
	received := p[FieldSecureHash]
	if received == "" {
		return VerificationResult{Valid: false}
	}

	data := p.Clone()
	delete(data, FieldSecureHash)
	delete(data, FieldSecureHashType)

	_, canonical := Canonicalize(data)
	expected := v.signer.Sign(canonical)

	return VerificationResult{
		Valid:    hmac.Equal([]byte(expected), []byte(received)),
		Expected: expected,
		Received: received,
	}
}
