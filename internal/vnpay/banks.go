package vnpay

// Display names for the bank codes the aggregator routes to.
var bankNames = map[string]string{
	"NCB":          "Ngan hang NCB",
	"VIETCOMBANK":  "Ngan hang Vietcombank",
	"VIETINBANK":   "Ngan hang Vietinbank",
	"BIDV":         "Ngan hang BIDV",
	"AGRIBANK":     "Ngan hang Agribank",
	"SACOMBANK":    "Ngan hang Sacombank",
	"TECHCOMBANK":  "Ngan hang Techcombank",
	"MBBANK":       "Ngan hang MB",
	"ACB":          "Ngan hang ACB",
	"TPBANK":       "Ngan hang TPBank",
	"VNPAYQR":      "Thanh toan quet ma QR",
	"VNBANK":       "The ATM - Tai khoan ngan hang noi dia",
	"INTCARD":      "The thanh toan quoc te",
}

// BankName returns a display name for code, or the code itself when
// it is not a known channel.
func BankName(code string) string {
	if name, ok := bankNames[code]; ok {
		return name
	}
	return code
}
