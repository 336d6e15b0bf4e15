package exchange

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

// Signer produces the signature Indodax's trade API expects: an HMAC-SHA512
// over the urlencoded POST body, hex encoded. Stateless; identical body and
// key always yield the same output.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign signs a canonical request body.
func (s *Signer) Sign(body string) (string, error) {
	if len(s.secret) == 0 {
		return "", &domain.SigningError{Reason: "empty secret key"}
	}
	h := hmac.New(sha512.New, s.secret)
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanonicalBody serializes request parameters in the fixed order used for
// signing. url.Values.Encode sorts by key, which is exactly the canonical
// form the exchange verifies against.
func CanonicalBody(params url.Values) string {
	return params.Encode()
}
