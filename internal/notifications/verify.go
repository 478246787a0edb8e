// Package notifications serves the marketplace account deletion webhook.
package notifications

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"partsfinder-backend/internal/scrapers/ebay"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// Challenge answers the endpoint ownership challenge.
func Challenge(code, verificationToken, endpoint string) string {
	sum := sha256.Sum256([]byte(code + verificationToken + endpoint))
	return hex.EncodeToString(sum[:])
}

// signatureHeader is the decoded x-ebay-signature header.
type signatureHeader struct {
	Alg       string `json:"alg"`
	Kid       string `json:"kid"`
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
}

func decodeSignatureHeader(header string) (signatureHeader, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
	if err != nil {
		return signatureHeader{}, fmt.Errorf("%w: decode header: %w", ErrInvalidSignature, err)
	}
	var sig signatureHeader
	err = json.Unmarshal(raw, &sig)
	if err != nil {
		return signatureHeader{}, fmt.Errorf("%w: decode header: %w", ErrInvalidSignature, err)
	}
	if sig.Kid == "" || sig.Signature == "" {
		return signatureHeader{}, fmt.Errorf("%w: header is missing kid or signature", ErrInvalidSignature)
	}
	return sig, nil
}

func parsePublicKey(pemText string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, errors.New("public key is not pem encoded")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not ecdsa", parsed)
	}
	return key, nil
}

// KeySource fetches notification signing keys.
//
// note: fault injection point
type KeySource interface {
	GetPublicKey(ctx context.Context, kid string) (ebay.PublicKey, error)
}

const (
	keyCacheSize = 64
	KeyCacheTTL  = time.Hour
)

// Verifier checks notification signatures, keys are cached per kid for KeyCacheTTL.
type Verifier struct {
	keys  KeySource
	cache *expirable.LRU[string, *ecdsa.PublicKey]
}

func NewVerifier(keys KeySource) Verifier {
	return Verifier{
		keys:  keys,
		cache: expirable.NewLRU[string, *ecdsa.PublicKey](keyCacheSize, nil, KeyCacheTTL),
	}
}

func (v Verifier) publicKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	cached, hit := v.cache.Get(kid)
	if hit {
		return cached, nil
	}

	fetched, err := v.keys.GetPublicKey(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("fetch public key '%s': %w", kid, err)
	}
	key, err := parsePublicKey(fetched.PEM)
	if err != nil {
		return nil, err
	}
	v.cache.Add(kid, key)
	return key, nil
}

// Verify checks header against body. Signature problems wrap ErrMissingSignature or
// ErrInvalidSignature, any other error means the key could not be obtained.
func (v Verifier) Verify(ctx context.Context, header string, body []byte) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}
	sig, err := decodeSignatureHeader(header)
	if err != nil {
		return err
	}
	signature, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return fmt.Errorf("%w: decode signature: %w", ErrInvalidSignature, err)
	}

	key, err := v.publicKey(ctx, sig.Kid)
	if err != nil {
		return err
	}

	digest := sha1.Sum(body)
	if !ecdsa.VerifyASN1(key, digest[:], signature) {
		return ErrInvalidSignature
	}
	return nil
}
