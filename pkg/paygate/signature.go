package paygate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CreateSignature signs a transaction-create request. The gateway expects
// HMAC-SHA256 over merchantCode + merchantRef + amount, hex encoded.
func CreateSignature(privateKey, merchantCode, merchantRef string, amountCents int64) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	fmt.Fprintf(mac, "%s%s%d", merchantCode, merchantRef, amountCents)
	return hex.EncodeToString(mac.Sum(nil))
}

// CallbackSignature computes the expected signature for a raw callback body.
func CallbackSignature(privateKey string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackSignature checks the signature header against the raw body
// using a constant-time comparison.
func VerifyCallbackSignature(privateKey string, rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := CallbackSignature(privateKey, rawBody)
	return hmac.Equal([]byte(expected), []byte(signature))
}
