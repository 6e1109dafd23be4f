package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a webhook timestamp may drift from the local
// clock before the event is rejected as stale.
const DefaultTolerance = 300 * time.Second

// VerifySignature checks a Stripe-Signature header against the raw webhook
// payload. The header is a comma-separated list of key=value pairs carrying a
// timestamp (t) and one or more candidate signatures (v1); multiple v1 values
// appear during webhook secret rotation.
//
// The signed payload is "{t}.{body}" and the signature is hex-encoded
// HMAC-SHA256 keyed by the webhook secret. Verification fails closed: a
// missing header, missing timestamp, empty candidate set, or a timestamp
// outside the tolerance window all return false without error. A stale
// timestamp is rejected even when the signature itself is valid, so a
// captured header cannot be replayed after the window closes.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) bool {
	return verifySignatureAt(payload, header, secret, tolerance, time.Now())
}

func verifySignatureAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) bool {
	ts, candidates, ok := parseSignatureHeader(header)
	if !ok {
		return false
	}

	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > tolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Check every candidate with a constant-time comparison; no early exit
	// on a partial prefix match.
	valid := false
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			valid = true
		}
	}
	return valid
}

// parseSignatureHeader extracts the timestamp and v1 signature candidates
// from a header of the form "t=<unix>,v1=<hex>[,v1=<hex>...]".
func parseSignatureHeader(header string) (ts int64, candidates []string, ok bool) {
	if header == "" {
		return 0, nil, false
	}

	var tsStr string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			tsStr = v
		case "v1":
			if v != "" {
				candidates = append(candidates, v)
			}
		}
	}
	if tsStr == "" || len(candidates) == 0 {
		return 0, nil, false
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, nil, false
	}
	return ts, candidates, true
}
