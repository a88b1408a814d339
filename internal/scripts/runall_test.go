package scripts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/orgkit/pkg/api"
)

func TestRunAllSucceeds(t *testing.T) {
	org := newFakeOrg(t)

	events := runScript(t, api.ScriptRunAll, governanceConfig(t, org), nil)

	last := terminal(t, events)
	assert.True(t, last.Result.Success)
	assert.Equal(t,
		"All 4 scripts completed successfully", last.Result.Message)

	results, ok := last.Result.Data["results"].(map[string]any)
	require.True(t, ok)
	require.Len(t, results, 4)
	for _, id := range []api.ScriptID{
		api.ScriptEnableFIDO2,
		api.ScriptPopulateDemoUsers,
		api.ScriptCreateAdminGroups,
		api.ScriptBootstrapGovernance,
	} {
		child, ok := results[string(id)].(*api.StepResult)
		require.True(t, ok, "missing child result for %s", id)
		assert.True(t, child.Success, "child %s failed: %s",
			id, child.Message)
	}

	assert.Equal(t, 1, org.activateCalls)
	assert.Len(t, org.users, 15)
	assert.True(t, org.campaigns["Quarterly Access Review"])
}

func TestRunAllStepLabels(t *testing.T) {
	org := newFakeOrg(t)

	events := runScript(t, api.ScriptRunAll, governanceConfig(t, org), nil)

	steps := map[string]bool{}
	for _, ev := range events {
		if !ev.Done && ev.Step != "" {
			steps[ev.Step] = true
		}
	}
	for _, id := range api.AllScriptIDs {
		if id == api.ScriptRunAll {
			continue
		}
		assert.True(t, steps[string(id)],
			"no events labeled with step %s", id)
	}
}

func TestRunAllContinuesAfterChildFailure(t *testing.T) {
	org := newFakeOrg(t)
	org.failAuthenticators = true

	events := runScript(t, api.ScriptRunAll, governanceConfig(t, org), nil)

	last := terminal(t, events)
	assert.False(t, last.Result.Success)
	assert.Equal(t, "1 of 4 scripts failed", last.Result.Message)

	results, ok := last.Result.Data["results"].(map[string]any)
	require.True(t, ok)
	fido, ok := results[string(api.ScriptEnableFIDO2)].(*api.StepResult)
	require.True(t, ok)
	assert.False(t, fido.Success)

	// later scripts still ran to completion
	assert.Len(t, org.users, 15)
	assert.True(t, org.campaigns["Quarterly Access Review"])

	var sawChildError bool
	for _, ev := range events {
		if !ev.Done && ev.Level == api.LevelError &&
			ev.Step == string(api.ScriptEnableFIDO2) {
			sawChildError = true
		}
	}
	assert.True(t, sawChildError)
}
