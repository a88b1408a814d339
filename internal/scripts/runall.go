package scripts

import (
	"context"
	"fmt"

	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/pkg/api"
)

// runAll executes every script in order, nesting each child's result
// verbatim. The aggregate succeeds only when every child succeeds. A
// child fault is converted to a failed child result so the remaining
// scripts still run
func runAll(children []*engine.Script) engine.Handler {
	return func(ctx context.Context, run *engine.Run) (
		*api.StepResult, error,
	) {
		results := map[string]any{}
		failed := 0
		for _, child := range children {
			childRun := run.WithStep(string(child.ID))
			childRun.Infof("Running %s...", child.Name)

			res, err := child.Handler(ctx, childRun)
			if err != nil {
				res = api.FailErr(err)
			}
			if res == nil {
				res = api.Failf(
					"script %s returned no result", child.ID,
				)
			}

			if res.Success {
				childRun.Success(res.Message)
			} else {
				failed++
				childRun.Error(res.Message)
			}
			results[string(child.ID)] = res
		}

		msg := fmt.Sprintf(
			"All %d scripts completed successfully", len(children),
		)
		if failed > 0 {
			msg = fmt.Sprintf(
				"%d of %d scripts failed", failed, len(children),
			)
		}
		return &api.StepResult{
			Success: failed == 0,
			Message: msg,
			Data:    map[string]any{"results": results},
		}, nil
	}
}
