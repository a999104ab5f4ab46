package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/decoders-hk/centre-assistant-go/internal/stringutil"
)

// VerifySubscription answers Meta's GET handshake. It returns the challenge
// to echo and true when mode and token match.
func VerifySubscription(mode, token, challenge, expected string) (string, bool) {
	if expected == "" || mode != "subscribe" {
		return "", false
	}
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return "", false
	}
	return challenge, true
}

// ValidSignature checks the X-Hub-Signature-256 header against body.
func ValidSignature(body []byte, header, appSecret string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Sign returns the X-Hub-Signature-256 value for body.
func Sign(body []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Allowed reports whether from may use the bot. An empty list allows
// everyone. Numbers compare after stringutil.NormalizePhone, so "+852 9123
// 4567" in the list admits 85291234567.
func Allowed(from string, testNumbers []string) bool {
	if len(testNumbers) == 0 {
		return true
	}
	from = stringutil.NormalizePhone(from)
	return slices.ContainsFunc(testNumbers, func(n string) bool {
		return stringutil.NormalizePhone(n) == from
	})
}
