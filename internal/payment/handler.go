package payment

import (
	"encoding/json"
	"net/http"
	"time"

	"vietcart-be/internal/logger"
	"vietcart-be/internal/metrics"
	"vietcart-be/internal/order"
	"vietcart-be/internal/utils"
	"vietcart-be/internal/vnpay"

	"go.uber.org/zap"
)

// IPN response codes mandated by the gateway. The transport status is
// always 200; anything else makes the gateway retry forever.
const (
	RspSuccess       = "00"
	RspOrderNotFound = "01"
	RspInvalidAmount = "04"
	RspChecksumFail  = "97"
	RspUnknownError  = "99"
)

// Handler exposes the three payment operations: create a redirect,
// verify the browser return, and confirm the server-to-server IPN.
type Handler struct {
	builder    *vnpay.Builder
	verifier   *vnpay.Verifier
	reconciler *order.Reconciler
}

func NewHandler(builder *vnpay.Builder, verifier *vnpay.Verifier, reconciler *order.Reconciler) *Handler {
	return &Handler{
		builder:    builder,
		verifier:   verifier,
		reconciler: reconciler,
	}
}

type createRequest struct {
	Amount    float64 `json:"amount"`
	OrderID   string  `json:"orderId"`
	OrderInfo string  `json:"orderInfo"`
	OrderType string  `json:"orderType"`
	BankCode  string  `json:"bankCode"`
	Locale    string  `json:"locale"`
	ReturnURL string  `json:"returnUrl"`
	IpnURL    string  `json:"ipnUrl"`
}

// CreatePaymentURL builds a signed redirect to the gateway's payment
// page and answers with the URL plus the canonical parameters.
func (h *Handler) CreatePaymentURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ObserveDuration("create", time.Since(start).Seconds()) }()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncRequest("create", "bad_request")
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	redirectURL, params, err := h.builder.BuildRedirect(r.Context(), vnpay.BuildInput{
		Amount:    req.Amount,
		TxnRef:    req.OrderID,
		OrderInfo: req.OrderInfo,
		OrderType: req.OrderType,
		BankCode:  req.BankCode,
		Locale:    req.Locale,
		ReturnURL: req.ReturnURL,
		IpnURL:    req.IpnURL,
		ClientIP:  utils.ClientIP(r),
	}, time.Now())
	if err != nil {
		metrics.IncRequest("create", "invalid_amount")
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := make(map[string]any, len(params)+3)
	for k, v := range params {
		data[k] = v
	}
	data["orderId"] = params[vnpay.FieldTxnRef]
	data["amount"] = req.Amount
	if req.BankCode != "" {
		data["bankName"] = vnpay.BankName(req.BankCode)
	}

	metrics.IncRequest("create", "ok")
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"paymentUrl": redirectURL,
		"data":       data,
	})
}

// Return handles the browser-facing redirect back from the gateway.
// It verifies the signature, reconciles the order, and reports the
// outcome with ordinary REST semantics.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ObserveDuration("return", time.Since(start).Seconds()) }()

	params := vnpay.ParamsFromValues(r.URL.Query())
	result := h.verifier.Verify(params)
	cb := vnpay.ParseCallback(params)

	if !result.Valid {
		metrics.IncVerification("invalid")
		metrics.IncRequest("return", "checksum_failed")
		logger.FromCtx(r.Context()).Warn("return callback failed checksum",
			zap.String("txn_ref", cb.TxnRef),
		)
		utils.WriteJSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"code":     RspChecksumFail,
			"message":  "Invalid signature",
			"orderId":  cb.TxnRef,
			"dbUpdate": false,
			"raw":      params,
		})
		return
	}
	metrics.IncVerification("valid")

	outcome := h.reconciler.Apply(r.Context(), cb)
	if outcome == order.OutcomeDBError || outcome == order.OutcomeNoStore {
		metrics.IncRequest("return", "store_error")
	} else {
		metrics.IncRequest("return", "ok")
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"code":          cb.ResponseCode,
		"message":       responseCodeMessage(cb.ResponseCode),
		"orderId":       cb.TxnRef,
		"amount":        cb.AmountMajor(),
		"bankCode":      cb.BankCode,
		"transactionNo": cb.TransactionNo,
		"payDate":       cb.PayDate,
		"dbUpdate":      outcome == order.OutcomeUpdated,
		"raw":           params,
	})
}

// IPN handles the gateway's server-to-server notification. Per the
// protocol contract the transport status is always 200 and the body
// carries the real outcome as an RspCode.
func (h *Handler) IPN(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ObserveDuration("ipn", time.Since(start).Seconds()) }()

	if err := r.ParseForm(); err != nil {
		metrics.IncRequest("ipn", "bad_request")
		writeIPN(w, RspUnknownError, "Unable to parse notification")
		return
	}

	params := vnpay.ParamsFromValues(r.Form)
	cb := vnpay.ParseCallback(params)
	log := logger.FromCtx(r.Context()).With(zap.String("txn_ref", cb.TxnRef))

	result := h.verifier.Verify(params)
	if !result.Valid {
		metrics.IncVerification("invalid")
		metrics.IncRequest("ipn", "checksum_failed")
		log.Warn("ipn failed checksum")
		writeIPN(w, RspChecksumFail, "Checksum failed")
		return
	}
	metrics.IncVerification("valid")

	switch outcome := h.reconciler.Apply(r.Context(), cb); outcome {
	case order.OutcomeUpdated:
		metrics.IncRequest("ipn", "ok")
		writeIPN(w, RspSuccess, "Confirm Success")
	case order.OutcomeNotFound:
		metrics.IncRequest("ipn", "not_found")
		writeIPN(w, RspOrderNotFound, "Order not found")
	case order.OutcomeAmountMismatch:
		metrics.IncRequest("ipn", "amount_mismatch")
		writeIPN(w, RspInvalidAmount, "Invalid amount")
	default:
		// no_store / db_error: answer 99 so the gateway retries once
		// the store is back.
		metrics.IncRequest("ipn", "store_error")
		log.Error("ipn reconciliation failed", zap.String("outcome", string(outcome)))
		writeIPN(w, RspUnknownError, "Unknown error")
	}
}

func writeIPN(w http.ResponseWriter, code, message string) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"RspCode": code,
		"Message": message,
	})
}

// responseCodeMessage translates the gateway's response codes for the
// browser-facing return page.
func responseCodeMessage(code string) string {
	switch code {
	case "00":
		return "Transaction successful"
	case "07":
		return "Amount deducted, transaction suspected of fraud"
	case "09":
		return "Card not registered for online banking"
	case "10":
		return "Card authentication failed too many times"
	case "11":
		return "Payment window expired"
	case "12":
		return "Card or account is locked"
	case "13":
		return "Wrong one-time password"
	case "24":
		return "Transaction canceled by customer"
	case "51":
		return "Insufficient funds"
	case "65":
		return "Daily transaction limit exceeded"
	case "75":
		return "Bank under maintenance"
	default:
		return "Transaction failed"
	}
}
