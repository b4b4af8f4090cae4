package vnpay

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vietcart-be/internal/logger"

	"go.uber.org/zap"
)

var ErrInvalidAmount = errors.New("vnpay: amount must be a positive finite number")

const redirectTTL = 15 * time.Minute

// Config carries the merchant-side settings for building redirects.
type Config struct {
	TmnCode   string
	PayURL    string
	ReturnURL string
	IpnURL    string
}

// PendingRecorder receives a best-effort pending-order upsert before
// the shopper is redirected, so abandoned redirects stay traceable.
type PendingRecorder interface {
	RecordPending(ctx context.Context, txnRef string, amount float64, orderInfo string) error
}

// Builder assembles signed redirect URLs to the gateway's payment page.
type Builder struct {
	cfg     Config
	signer  *Signer
	pending PendingRecorder
}

func NewBuilder(cfg Config, signer *Signer, pending PendingRecorder) *Builder {
	return &Builder{cfg: cfg, signer: signer, pending: pending}
}

// BuildInput is one checkout attempt. Zero-value optional fields fall
// back to the merchant configuration.
type BuildInput struct {
	Amount    float64
	TxnRef    string
	OrderInfo string
	OrderType string
	Locale    string
	BankCode  string
	ReturnURL string
	IpnURL    string
	ClientIP  string
}

// BuildRedirect validates the attempt, assembles and signs the
// parameter set and returns the full redirect URL alongside the
// canonical parameters.
func (b *Builder) BuildRedirect(ctx context.Context, in BuildInput, now time.Time) (string, Params, error) {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return "", nil, ErrInvalidAmount
	}

	txnRef := in.TxnRef
	if txnRef == "" {
		txnRef = NewTxnRef(now)
	}

	orderInfo := in.OrderInfo
	if orderInfo == "" {
		orderInfo = "Thanh toan don hang " + txnRef
	}

	locale := in.Locale
	if locale == "" {
		locale = LocaleVN
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = b.cfg.ReturnURL
	}

	amountMinor := int64(math.Round(in.Amount * 100))

	params := Params{
		FieldVersion:    Version,
		FieldCommand:    CommandPay,
		FieldTmnCode:    b.cfg.TmnCode,
		FieldLocale:     locale,
		FieldCurrCode:   CurrencyVND,
		FieldTxnRef:     txnRef,
		FieldOrderInfo:  orderInfo,
		FieldOrderType:  in.OrderType,
		FieldAmount:     strconv.FormatInt(amountMinor, 10),
		FieldReturnURL:  returnURL,
		FieldIPAddr:     in.ClientIP,
		FieldCreateDate: now.Format(dateFormat),
		FieldExpireDate: now.Add(redirectTTL).Format(dateFormat),
	}
	if in.OrderType == "" {
		params[FieldOrderType] = "other"
	}
	if in.BankCode != "" {
		params[FieldBankCode] = in.BankCode
	}

	// The gateway refuses to deliver IPNs to non-public hosts, so a
	// local notify URL is silently left out rather than rejected.
	ipnURL := in.IpnURL
	if ipnURL == "" {
		ipnURL = b.cfg.IpnURL
	}
	if ipnURL != "" && isPubliclyRoutable(ipnURL) {
		params[FieldIpnURL] = ipnURL
	}

	_, canonical := Canonicalize(params)
	signature := b.signer.Sign(canonical)

	query := canonical +
		"&" + FieldSecureHashType + "=" + HashAlgorithm +
		"&" + FieldSecureHash + "=" + signature

	if b.pending != nil {
		if err := b.pending.RecordPending(ctx, txnRef, in.Amount, orderInfo); err != nil {
			logger.FromCtx(ctx).Warn("failed to record pending order",
				zap.String("txn_ref", txnRef),
				zap.Error(err),
			)
		}
	}

	return b.cfg.PayURL + "?" + query, params, nil
}

// NewTxnRef builds a transaction reference from the current time plus
// a cryptographic random suffix. Collisions are left to the store's
// unique constraint on insert.
func NewTxnRef(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}
	return fmt.Sprintf("%s%04d", now.Format(dateFormat), n.Int64())
}

// isPubliclyRoutable reports whether url points at a host the gateway
// could plausibly reach. Loopback, private and link-local addresses
// are out.
func isPubliclyRoutable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}

	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return false
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return false
		}
	}
	return true
}
