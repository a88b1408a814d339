package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/orgkit/pkg/api"
	"github.com/kode4food/orgkit/pkg/log"
)

type (
	// Client issues bearer-authenticated JSON calls against the identity
	// API. Implementations must surface non-2xx responses as *APIError
	Client interface {
		Get(ctx context.Context, path string) (gjson.Result, error)
		Post(ctx context.Context, path, body string) (gjson.Result, error)
	}

	// HTTPClient is the production Client backed by net/http
	HTTPClient struct {
		httpClient *http.Client
		baseURL    string
		authz      string
	}

	// APIError describes a non-2xx response from the identity API. Code
	// and Summary carry the upstream error fields when present
	APIError struct {
		Method  string
		Path    string
		Code    string
		Summary string
		Status  int
	}
)

// ErrMarshalBody is returned when a request body cannot be serialized
var ErrMarshalBody = errors.New("failed to marshal request body")

// forbiddenGuidance is appended to 403 errors so callers can distinguish
// "not entitled" from "doesn't exist"
const forbiddenGuidance = "the credential may be missing a required " +
	"OAuth scope or the caller may lack an admin role"

var _ Client = (*HTTPClient)(nil)

// New creates a client authenticated with the org's static API token
func New(cfg *api.OrgConfig, timeout time.Duration) *HTTPClient {
	return newClient(cfg.BaseURL(), "SSWS "+cfg.APIToken, timeout)
}

// NewBearer creates a client authenticated with a short-lived bearer
// token, used by governance-scoped scripts
func NewBearer(orgURL, token string, timeout time.Duration) *HTTPClient {
	return newClient(
		strings.TrimRight(orgURL, "/"), "Bearer "+token, timeout,
	)
}

func newClient(baseURL, authz string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		authz:      authz,
	}
}

// Get issues a GET against the given API path
func (c *HTTPClient) Get(
	ctx context.Context, path string,
) (gjson.Result, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body against the given API path. An
// empty body posts without content
func (c *HTTPClient) Post(
	ctx context.Context, path, body string,
) (gjson.Result, error) {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	return c.do(ctx, http.MethodPost, path, rdr)
}

// PostJSON marshals body and posts it against the given API path
func (c *HTTPClient) PostJSON(
	ctx context.Context, path string, body any,
) (gjson.Result, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrMarshalBody, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw))
}

func (c *HTTPClient) do(
	ctx context.Context, method, path string, body io.Reader,
) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL+path, body,
	)
	if err != nil {
		return gjson.Result{}, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authz)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Identity API request failed",
			slog.String("method", method),
			slog.String("path", path),
			log.Error(err))
		return gjson.Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		parsed := gjson.ParseBytes(respBody)
		apiErr := &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Code:    parsed.Get("errorCode").String(),
			Summary: parsed.Get("errorSummary").String(),
		}
		slog.Error("Identity API error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			log.ErrorString(apiErr.Summary))
		return gjson.Result{}, apiErr
	}

	return gjson.ParseBytes(respBody), nil
}

// Error renders the status, the upstream error summary when present, and
// the operation being attempted. 403 responses carry actionable guidance
func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: HTTP %d", e.Method, e.Path, e.Status)
	if e.Summary != "" {
		fmt.Fprintf(&sb, ": %s", e.Summary)
	}
	if e.Code != "" {
		fmt.Fprintf(&sb, " (%s)", e.Code)
	}
	if e.Status == http.StatusForbidden {
		fmt.Fprintf(&sb, "; %s", forbiddenGuidance)
	}
	return sb.String()
}

// IsAlreadyExists reports whether err is an identity API rejection for a
// resource that already exists. Reruns treat this as success-with-skip
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == "E0000038" {
		return true
	}
	return strings.Contains(
		strings.ToLower(apiErr.Summary), "already exists",
	)
}

// IsNotFound reports whether err is an identity API 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusNotFound
}

// IsForbidden reports whether err is an identity API 403
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusForbidden
}
