package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyCheckoutSignature checks the hosted-checkout callback signature:
// HMAC-SHA256 over "orderID|paymentID" keyed with the API secret, hex
// encoded. Constant-time comparison.
func VerifyCheckoutSignature(secret, orderID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignCheckout produces the signature VerifyCheckoutSignature accepts; used
// by fakes and tests to forge valid callbacks.
func SignCheckout(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
