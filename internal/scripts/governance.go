package scripts

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kode4food/orgkit/internal/client"
	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/internal/oauth"
	"github.com/kode4food/orgkit/pkg/api"
)

const (
	campaignsPath = "/governance/api/v1/campaigns"

	defaultCampaignName = "Quarterly Access Review"
)

// governanceScopes are requested for every governance-scoped run. The
// token is held only for the duration of the run and never cached
var governanceScopes = []string{
	"okta.governance.accessCertifications.manage",
}

// bootstrapGovernance derives a bearer token via the client-assertion
// flow, then find-or-creates an access certification campaign
func bootstrapGovernance(timeout time.Duration) engine.Handler {
	return func(ctx context.Context, run *engine.Run) (
		*api.StepResult, error,
	) {
		cfg := run.Config
		name := run.Inputs.GetString("campaign", defaultCampaignName)

		run.Info("Requesting a governance access token...")
		issuer := oauth.NewIssuer(timeout)
		token, err := issuer.GetAccessToken(
			ctx, cfg.OrgURL, cfg.ClientID, cfg.PrivateKey, cfg.KeyID,
			governanceScopes,
		)
		if err != nil {
			return nil, err
		}

		c := client.NewBearer(cfg.BaseURL(), token, timeout)

		filter := fmt.Sprintf(`name eq "%s"`, name)
		existing, err := c.Get(
			ctx, campaignsPath+"?filter="+url.QueryEscape(filter),
		)
		if err != nil {
			switch {
			case client.IsNotFound(err):
				return api.Fail(
					"The governance API is not available in this " +
						"org. Verify that Identity Governance is " +
						"enabled before rerunning.",
				), nil
			case client.IsForbidden(err):
				// entitlement problem, not a fault; the error text
				// carries the scope and admin-role guidance
				return api.FailErr(err), nil
			}
			return nil, err
		}
		for _, camp := range existing.Get("data").Array() {
			if camp.Get("name").String() == name {
				return api.Succeedf(
					"Campaign %q already exists.", name,
				).WithData(
					"campaignId", camp.Get("id").String(),
				), nil
			}
		}

		run.Infof("Creating campaign %q...", name)
		created, err := c.PostJSON(ctx, campaignsPath, map[string]any{
			"name": name,
			"description": "Access certification campaign created " +
				"by " + string(api.ScriptBootstrapGovernance),
		})
		if err != nil {
			if client.IsAlreadyExists(err) {
				return api.Succeedf(
					"Campaign %q already exists.", name,
				), nil
			}
			return nil, err
		}

		return api.Succeedf(
			"Campaign %q created.", name,
		).WithData("campaignId", created.Get("id").String()), nil
	}
}
