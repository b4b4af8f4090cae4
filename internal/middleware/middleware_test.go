package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestResolveRateTier(t *testing.T) {
	t.Run("Payment creation is strict", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/payment/create_payment_url", nil)
		limit, burst, tier := resolveRateTier(r)

		assert.Equal(t, limitStrict, limit)
		assert.Equal(t, burstStrict, burst)
		assert.Equal(t, "strict", tier)
	})

	t.Run("Callbacks stay general", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/payment/vnpay_ipn", nil)
		_, _, tier := resolveRateTier(r)
		assert.Equal(t, "general", tier)
	})

	t.Run("Trusted service header", func(t *testing.T) {
		t.Setenv("INTERNAL_SECRET_KEY", "internal-secret")

		r := httptest.NewRequest(http.MethodGet, "/payment/vnpay_ipn", nil)
		r.Header.Set("X-Service-Auth", "internal-secret")

		limit, _, tier := resolveRateTier(r)
		assert.Equal(t, rate.Limit(100), limit)
		assert.Equal(t, "internal", tier)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	t.Run("Strict tier exhausts after burst", func(t *testing.T) {
		var last int
		for i := 0; i < burstStrict+1; i++ {
			r := httptest.NewRequest(http.MethodPost, "/payment/create_payment_url", nil)
			r.RemoteAddr = "198.51.100.99:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			last = w.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("Separate identities get separate buckets", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/payment/create_payment_url", nil)
		r.RemoteAddr = "198.51.100.100:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
