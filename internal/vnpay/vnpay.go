package vnpay

import (
	"net/url"
	"strconv"
)

// Parameter names fixed by the VNPay 2.1.0 pay protocol.
const (
	FieldVersion           = "vnp_Version"
	FieldCommand           = "vnp_Command"
	FieldTmnCode           = "vnp_TmnCode"
	FieldLocale            = "vnp_Locale"
	FieldCurrCode          = "vnp_CurrCode"
	FieldTxnRef            = "vnp_TxnRef"
	FieldOrderInfo         = "vnp_OrderInfo"
	FieldOrderType         = "vnp_OrderType"
	FieldAmount            = "vnp_Amount"
	FieldReturnURL         = "vnp_ReturnUrl"
	FieldIpnURL            = "vnp_IpnUrl"
	FieldIPAddr            = "vnp_IpAddr"
	FieldCreateDate        = "vnp_CreateDate"
	FieldExpireDate        = "vnp_ExpireDate"
	FieldBankCode          = "vnp_BankCode"
	FieldBankTranNo        = "vnp_BankTranNo"
	FieldCardType          = "vnp_CardType"
	FieldPayDate           = "vnp_PayDate"
	FieldResponseCode      = "vnp_ResponseCode"
	FieldTransactionNo     = "vnp_TransactionNo"
	FieldTransactionStatus = "vnp_TransactionStatus"
	FieldSecureHash        = "vnp_SecureHash"
	FieldSecureHashType    = "vnp_SecureHashType"
)

const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyVND   = "VND"
	LocaleVN      = "vn"
	HashAlgorithm = "HmacSHA512"

	// CodeSuccess is the gateway's success value for both
	// vnp_ResponseCode and vnp_TransactionStatus.
	CodeSuccess = "00"

	dateFormat = "20060102150405"
)

// Params is the string-keyed parameter set exchanged with the gateway.
// Ordering is never stored; Canonicalize computes it.
type Params map[string]string

func ParamsFromValues(values url.Values) Params {
	p := make(Params, len(values))
	for k := range values {
		p[k] = values.Get(k)
	}
	return p
}

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Callback is the parsed return/IPN payload. Raw keeps the full
// parameter set for archiving into order metadata.
type Callback struct {
	TxnRef            string
	AmountMinor       int64
	ResponseCode      string
	TransactionStatus string
	BankCode          string
	BankTranNo        string
	CardType          string
	TransactionNo     string
	PayDate           string
	OrderInfo         string
	Raw               Params
}

func ParseCallback(p Params) Callback {
	cb := Callback{
		TxnRef:            p[FieldTxnRef],
		ResponseCode:      p[FieldResponseCode],
		TransactionStatus: p[FieldTransactionStatus],
		BankCode:          p[FieldBankCode],
		BankTranNo:        p[FieldBankTranNo],
		CardType:          p[FieldCardType],
		TransactionNo:     p[FieldTransactionNo],
		PayDate:           p[FieldPayDate],
		OrderInfo:         p[FieldOrderInfo],
		Raw:               p.Clone(),
	}
	cb.AmountMinor, _ = strconv.ParseInt(p[FieldAmount], 10, 64)
	return cb
}

// AmountMajor converts the gateway's minor-unit amount (major x100)
// back to major units.
func (c Callback) AmountMajor() float64 {
	return float64(c.AmountMinor) / 100
}

// Success reports whether the gateway confirmed the payment. The
// transaction-status field is only consulted when the gateway sent it.
func (c Callback) Success() bool {
	if c.ResponseCode != CodeSuccess {
		return false
	}
	if c.TransactionStatus != "" && c.TransactionStatus != CodeSuccess {
		return false
	}
	return true
}
