package api

import (
	"errors"
	"strings"
)

type (
	// OrgConfig is the credential bundle supplied with every run request.
	// It is read-only input, never mutated by the engine or handlers. The
	// OAuth fields are required only by governance-scoped scripts
	OrgConfig struct {
		OrgURL     string `json:"org_url"`
		APIToken   string `json:"api_token"`
		ClientID   string `json:"client_id,omitempty"`
		PrivateKey string `json:"private_key,omitempty"`
		KeyID      string `json:"key_id,omitempty"`
	}
)

var (
	ErrMissingOrgURL   = errors.New("org URL is required")
	ErrMissingAPIToken = errors.New("API token is required")
	ErrMissingOAuth    = errors.New(
		"client ID, private key, and key ID are required " +
			"for governance scripts",
	)
)

// Validate checks that the fields every script needs are present
func (c *OrgConfig) Validate() error {
	if c == nil || strings.TrimSpace(c.OrgURL) == "" {
		return ErrMissingOrgURL
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return ErrMissingAPIToken
	}
	return nil
}

// ValidateGovernance checks the OAuth key material needed by
// governance-scoped scripts, in addition to the base fields
func (c *OrgConfig) ValidateGovernance() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ClientID) == "" ||
		strings.TrimSpace(c.PrivateKey) == "" ||
		strings.TrimSpace(c.KeyID) == "" {
		return ErrMissingOAuth
	}
	return nil
}

// BaseURL returns the org URL without a trailing slash
func (c *OrgConfig) BaseURL() string {
	return strings.TrimRight(c.OrgURL, "/")
}
