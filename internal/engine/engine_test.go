package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/orgkit/internal/config"
	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/pkg/api"
)

const testScriptID = api.ScriptID("test-script")

func testConfig() *api.OrgConfig {
	return &api.OrgConfig{
		OrgURL:   "https://example.okta.com",
		APIToken: "test-token",
	}
}

func testEngine(t *testing.T, h engine.Handler) *engine.Engine {
	t.Helper()
	registry := engine.NewRegistry()
	err := registry.Register(&engine.Script{
		ID:      testScriptID,
		Name:    "Test Script",
		Handler: h,
	})
	require.NoError(t, err)
	return engine.New(registry, config.NewDefaultConfig())
}

func collect(
	t *testing.T, events <-chan api.LogEvent,
) []api.LogEvent {
	t.Helper()
	var res []api.LogEvent
	for ev := range events {
		res = append(res, ev)
	}
	return res
}

func TestRunEmitsTerminalEventLast(t *testing.T) {
	eng := testEngine(t,
		func(_ context.Context, run *engine.Run) (*api.StepResult, error) {
			run.Info("first")
			run.Warn("second")
			return api.Succeed("all good"), nil
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 3)

	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, api.LevelInfo, all[0].Level)
	assert.False(t, all[0].Done)
	assert.Equal(t, "second", all[1].Message)
	assert.Equal(t, api.LevelWarn, all[1].Level)

	terminal := all[2]
	assert.True(t, terminal.Done)
	assert.Equal(t, api.LevelSuccess, terminal.Level)
	assert.Equal(t, "all good", terminal.Message)
	require.NotNil(t, terminal.Result)
	assert.True(t, terminal.Result.Success)

	doneCount := 0
	for _, ev := range all {
		if ev.Done {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)
}

func TestRunStampsMonotonicTimestamps(t *testing.T) {
	eng := testEngine(t,
		func(_ context.Context, run *engine.Run) (*api.StepResult, error) {
			for range 10 {
				run.Info("tick")
			}
			return api.Succeed("done"), nil
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 11)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i].Timestamp, all[i-1].Timestamp)
		assert.NotZero(t, all[i].Timestamp)
	}
}

func TestRunHandlerError(t *testing.T) {
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			return nil, errors.New("upstream exploded")
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 1)
	terminal := all[0]
	assert.True(t, terminal.Done)
	assert.Equal(t, api.LevelError, terminal.Level)
	require.NotNil(t, terminal.Result)
	assert.False(t, terminal.Result.Success)
	assert.Equal(t, "upstream exploded", terminal.Result.Message)
}

func TestRunHandlerPanic(t *testing.T) {
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			panic("boom")
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 1)
	terminal := all[0]
	assert.True(t, terminal.Done)
	require.NotNil(t, terminal.Result)
	assert.False(t, terminal.Result.Success)
	assert.Contains(t, terminal.Result.Message, "boom")
}

func TestRunHandlerNilResult(t *testing.T) {
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			return nil, nil
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 1)
	assert.False(t, all[0].Result.Success)
	assert.Contains(t, all[0].Result.Message, "no result")
}

func TestRunUnknownScript(t *testing.T) {
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			return api.Succeed("ok"), nil
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: "no-such-script",
		Config:   testConfig(),
	})
	assert.Nil(t, events)
	assert.ErrorIs(t, err, engine.ErrScriptNotFound)
}

func TestRunMissingCredentials(t *testing.T) {
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			return api.Succeed("ok"), nil
		},
	)

	_, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   &api.OrgConfig{OrgURL: "https://example.okta.com"},
	})
	assert.ErrorIs(t, err, api.ErrMissingAPIToken)

	_, err = eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   nil,
	})
	assert.ErrorIs(t, err, api.ErrMissingOrgURL)
}

func TestRunGovernanceRequiresOAuthFields(t *testing.T) {
	registry := engine.NewRegistry()
	err := registry.Register(&engine.Script{
		ID:         testScriptID,
		Name:       "Governance Script",
		Governance: true,
		Handler: func(context.Context, *engine.Run) (
			*api.StepResult, error,
		) {
			return api.Succeed("ok"), nil
		},
	})
	require.NoError(t, err)
	eng := engine.New(registry, config.NewDefaultConfig())

	_, err = eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	assert.ErrorIs(t, err, api.ErrMissingOAuth)
}

func TestRunStepLabels(t *testing.T) {
	eng := testEngine(t,
		func(_ context.Context, run *engine.Run) (*api.StepResult, error) {
			run.WithStep("phase-one").Info("working")
			run.Info("unlabeled")
			return api.Succeed("done"), nil
		},
	)

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	all := collect(t, events)
	require.Len(t, all, 3)
	assert.Equal(t, "phase-one", all[0].Step)
	assert.Empty(t, all[1].Step)
}

// Concurrent identical requests are intentionally not deduplicated; the
// engine runs both and callers are responsible for serializing
func TestRunNoDeduplication(t *testing.T) {
	var invocations atomic.Int32
	eng := testEngine(t,
		func(context.Context, *engine.Run) (*api.StepResult, error) {
			invocations.Add(1)
			return api.Succeed("done"), nil
		},
	)

	req := &api.RunRequest{
		ScriptID: testScriptID,
		Config:   testConfig(),
	}
	first, err := eng.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), req)
	require.NoError(t, err)

	collect(t, first)
	collect(t, second)
	assert.Equal(t, int32(2), invocations.Load())
}
