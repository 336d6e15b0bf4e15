package exchange

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

func TestSignerKnownVector(t *testing.T) {
	// Verified against the reference HMAC-SHA512 implementation.
	signer := NewSigner("test-secret")
	body := "method=getInfo&recvWindow=5000&timestamp=1700000000000"
	want := "bf03fcc2e14112aede7e4edb345101e8fc894533b556ff67e068ff91101d734c09a6e7b8d33e5ac14fc9ae25bce7f039327dd59f78eaa58ce89d3dc373f779f3"

	got, err := signer.Sign(body)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if got != want {
		t.Errorf("Sign() = %s, want %s", got, want)
	}
}

func TestSignerDeterministic(t *testing.T) {
	signer := NewSigner("another-secret")
	body := "method=trade&pair=btc_idr&price=1000000&timestamp=1"

	first, err := signer.Sign(body)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	second, err := signer.Sign(body)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if first != second {
		t.Errorf("same body signed differently: %s vs %s", first, second)
	}
	if len(first) != 128 {
		t.Errorf("signature length = %d, want 128 hex chars", len(first))
	}
}

func TestSignerEmptySecret(t *testing.T) {
	signer := NewSigner("")
	_, err := signer.Sign("method=getInfo")
	var se *domain.SigningError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SigningError, got %v", err)
	}
}

func TestCanonicalBodySortsKeys(t *testing.T) {
	params := url.Values{}
	params.Set("timestamp", "1")
	params.Set("method", "trade")
	params.Set("pair", "btc_idr")

	if got, want := CanonicalBody(params), "method=trade&pair=btc_idr&timestamp=1"; got != want {
		t.Errorf("CanonicalBody() = %q, want %q", got, want)
	}
}
