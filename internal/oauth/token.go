package oauth

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type (
	// Issuer exchanges a signed client assertion for a short-lived
	// bearer token. Tokens are never cached; every governance run
	// derives its own
	Issuer struct {
		httpClient *http.Client
	}
)

const (
	// assertionLifetime is the fixed validity window of each assertion
	assertionLifetime = 300 * time.Second

	clientAssertionType = "urn:ietf:params:oauth:" +
		"client-assertion-type:jwt-bearer"
	tokenPath = "/oauth2/v1/token"
)

var (
	ErrUnsupportedKey = errors.New("unsupported private key type")
	ErrTokenExchange  = errors.New("token request failed")
	ErrNoAccessToken  = errors.New("token response had no access_token")
)

// NewIssuer creates an Issuer whose token-endpoint calls are bounded by
// the given timeout
func NewIssuer(timeout time.Duration) *Issuer {
	return &Issuer{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetAccessToken builds a signed client assertion for clientID and
// exchanges it at {orgURL}/oauth2/v1/token for a bearer token carrying
// the requested scopes
func (i *Issuer) GetAccessToken(
	ctx context.Context,
	orgURL, clientID, keyMaterial, keyID string, scopes []string,
) (string, error) {
	key, err := ParsePrivateKey(keyMaterial)
	if err != nil {
		return "", err
	}

	tokenURL := strings.TrimRight(orgURL, "/") + tokenPath
	assertion, err := signAssertion(key, clientID, keyID, tokenURL)
	if err != nil {
		return "", err
	}

	return i.exchange(ctx, tokenURL, assertion, scopes)
}

// signAssertion constructs the compact JWT: issuer and subject are the
// client identifier, the audience is the token endpoint, and every call
// gets a fresh jti so assertions are never replayable
func signAssertion(key any, clientID, keyID, tokenURL string) (
	string, error,
) {
	method, err := signingMethod(key)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    clientID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{tokenURL},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = keyID
	return token.SignedString(key)
}

func signingMethod(key any) (jwt.SigningMethod, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PrivateKey:
		switch k.Curve {
		case elliptic.P256():
			return jwt.SigningMethodES256, nil
		case elliptic.P384():
			return jwt.SigningMethodES384, nil
		case elliptic.P521():
			return jwt.SigningMethodES512, nil
		}
		return nil, fmt.Errorf("%w: unsupported curve %s",
			ErrUnsupportedKey, k.Curve.Params().Name)
	case ed25519.PrivateKey:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
}

func (i *Issuer) exchange(
	ctx context.Context, tokenURL, assertion string, scopes []string,
) (string, error) {
	form := url.Values{
		"grant_type":            {"client_credentials"},
		"scope":                 {strings.Join(scopes, " ")},
		"client_assertion_type": {clientAssertionType},
		"client_assertion":      {assertion},
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	parsed := gjson.ParseBytes(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", tokenError(resp.StatusCode, parsed)
	}

	accessToken := parsed.Get("access_token").String()
	if accessToken == "" {
		return "", ErrNoAccessToken
	}
	return accessToken, nil
}

// tokenError surfaces the upstream error and error_description fields
// verbatim alongside the HTTP status
func tokenError(status int, body gjson.Result) error {
	msg := body.Get("error").String()
	if desc := body.Get("error_description").String(); desc != "" {
		msg = fmt.Sprintf("%s: %s", msg, desc)
	}
	if msg == "" {
		return fmt.Errorf("%w: HTTP %d", ErrTokenExchange, status)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrTokenExchange, status, msg)
}
