package vnpay

import (
	"net/url"
	"sort"
	"strings"
)

// Pair is one key with its encoded value, in canonical position.
type Pair struct {
	Key   string
	Value string
}

// Canonicalize renders the parameter set into the exact string the
// gateway signs: keys sorted bytewise ascending, values form-encoded
// with spaces as '+', joined as k1=v1&k2=v2. The result depends only
// on the contents of p, never on map iteration order.
func Canonicalize(p Params) ([]Pair, string) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	var b strings.Builder
	for i, k := range keys {
		encoded := url.QueryEscape(p[k])
		pairs = append(pairs, Pair{Key: k, Value: encoded})
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encoded)
	}
	return pairs, b.String()
}
