package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

func computeTestSignature(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
