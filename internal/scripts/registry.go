// Package scripts implements the setup workflows the engine can run.
// Every script is idempotence-aware: reruns find existing resources
// instead of failing on duplicates
package scripts

import (
	"time"

	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/pkg/api"
)

// NewRegistry builds the closed script registry. Handlers bound here are
// the only workflows the engine will ever resolve; api.AllScriptIDs
// enumerates the same set and the registry test asserts the two agree
func NewRegistry(apiTimeout time.Duration) (*engine.Registry, error) {
	singles := []*engine.Script{
		{
			ID:   api.ScriptEnableFIDO2,
			Name: "Enable FIDO2 (WebAuthn)",
			Description: "Activates the FIDO2 (WebAuthn) authenticator " +
				"if it is inactive",
			Handler: enableFIDO2(apiTimeout),
		},
		{
			ID:   api.ScriptPopulateDemoUsers,
			Name: "Populate Demo Users",
			Description: "Creates the demo user profiles, skipping any " +
				"that already exist",
			Handler: populateDemoUsers(apiTimeout),
		},
		{
			ID:   api.ScriptCreateAdminGroups,
			Name: "Create Admin Groups",
			Description: "Creates the named groups, skipping any that " +
				"already exist",
			Handler: createAdminGroups(apiTimeout),
		},
		{
			ID:   api.ScriptBootstrapGovernance,
			Name: "Bootstrap Governance",
			Description: "Creates an access certification campaign " +
				"using an OAuth client assertion",
			Governance: true,
			Handler:    bootstrapGovernance(apiTimeout),
		},
	}

	registry := engine.NewRegistry()
	for _, s := range singles {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}

	// run-all needs the full governance credential bundle because its
	// children include a governance script
	err := registry.Register(&engine.Script{
		ID:          api.ScriptRunAll,
		Name:        "Run All",
		Description: "Runs every script in order and aggregates results",
		Governance:  true,
		Handler:     runAll(singles),
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}
