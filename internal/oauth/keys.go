package oauth

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
)

// The two parse paths fail differently, and the fixes differ: a malformed
// JWK needs the key object repaired, a malformed PEM needs the envelope
// repaired. Errors preserve which path was attempted and why it failed
var (
	ErrMalformedJWK = errors.New("malformed JWK private key")
	ErrMalformedPEM = errors.New("malformed PEM private key")

	ErrMissingKeyType = errors.New(`JWK is missing the required "kty" field`)
	ErrPublicKeyOnly  = errors.New("key material is not a private key")
)

var pemEnvelope = regexp.MustCompile(
	`(?s)-----BEGIN ([A-Z0-9 ]+)-----(.*?)-----END [A-Z0-9 ]+-----`,
)

// ParsePrivateKey imports private key material that may arrive as a JSON
// web key, a PEM block, a bare base64 DER payload, or a JWK smuggled
// inside a PEM envelope (a known upstream quirk). It returns the raw
// crypto private key ready for signing
func ParsePrivateKey(material string) (any, error) {
	normalized := NormalizeKeyMaterial(material)
	if strings.HasPrefix(normalized, "{") {
		return parseJWK(normalized)
	}
	return parsePEM(normalized)
}

// NormalizeKeyMaterial strips carriage returns and, when a PEM envelope
// turns out to be wrapping a JSON key object, discards the envelope and
// returns the JSON payload
func NormalizeKeyMaterial(material string) string {
	s := strings.TrimSpace(strings.ReplaceAll(material, "\r", ""))
	if m := pemEnvelope.FindStringSubmatch(s); m != nil {
		if inner := strings.TrimSpace(m[2]); strings.HasPrefix(inner, "{") {
			return inner
		}
	}
	return s
}

func parseJWK(s string) (any, error) {
	var probe map[string]any
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJWK, err)
	}
	if kty, _ := probe["kty"].(string); kty == "" {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJWK, ErrMissingKeyType)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON([]byte(s)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJWK, err)
	}
	if jwk.IsPublic() {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJWK, ErrPublicKeyOnly)
	}
	return jwk.Key, nil
}

func parsePEM(s string) (any, error) {
	block, _ := pem.Decode([]byte(canonicalPEM(s)))
	if block == nil {
		return nil, fmt.Errorf(
			"%w: no PEM block could be decoded", ErrMalformedPEM,
		)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPEM, err)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPEM, err)
		}
		return key, nil
	default:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedPEM, err)
		}
		return key, nil
	}
}

// canonicalPEM rebuilds a well-formed PEM block from whatever shape the
// material arrived in: markers with the line breaks stripped, or a bare
// base64 payload with no envelope at all
func canonicalPEM(s string) string {
	if m := pemEnvelope.FindStringSubmatch(s); m != nil {
		return wrapPEM(m[1], m[2])
	}
	return wrapPEM("PRIVATE KEY", s)
}

func wrapPEM(blockType, payload string) string {
	b64 := strings.Join(strings.Fields(payload), "")
	var sb strings.Builder
	fmt.Fprintf(&sb, "-----BEGIN %s-----\n", blockType)
	for len(b64) > 64 {
		sb.WriteString(b64[:64])
		sb.WriteByte('\n')
		b64 = b64[64:]
	}
	if len(b64) > 0 {
		sb.WriteString(b64)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "-----END %s-----\n", blockType)
	return sb.String()
}
