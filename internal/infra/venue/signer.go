package venue

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Signer produces the HMAC request headers the venue REST APIs expect.
type Signer struct {
	accessKey  string
	secretKey  string
	passphrase string
}

// NewSigner creates a new Signer instance
func NewSigner(accessKey, secretKey, passphrase string) *Signer {
	return &Signer{
		accessKey:  accessKey,
		secretKey:  secretKey,
		passphrase: passphrase,
	}
}

// GenerateHeaders creates the auth headers for a request.
// method: GET, POST, etc.
// path: /api/v1/trade/order (no host)
// query: param=1&test=2 (empty if none)
// body: json string (empty if none)
//
// The signed payload is timestamp + method + path[?query] + body with a
// millisecond unix timestamp.
func (s *Signer) GenerateHeaders(method, path, query, body string) map[string]string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())

	fullPath := path
	if query != "" {
		fullPath = path + "?" + query
	}

	payload := timestamp + method + fullPath + body
	sign := computeHmacSha256(payload, s.secretKey)

	return map[string]string{
		"ACCESS-KEY":        s.accessKey,
		"ACCESS-SIGN":       sign,
		"ACCESS-TIMESTAMP":  timestamp,
		"ACCESS-PASSPHRASE": s.passphrase,
		"Content-Type":      "application/json",
	}
}

func computeHmacSha256(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
