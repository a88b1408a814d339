package scripts

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kode4food/orgkit/internal/client"
	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/pkg/api"
)

const groupsPath = "/api/v1/groups"

// defaultGroups is used when the request supplies no "groups" input
var defaultGroups = []string{
	"Demo Super Admins",
	"Demo Helpdesk",
	"Demo Read-Only Auditors",
}

// createAdminGroups find-or-creates each named group. The group name is
// the natural key; per-item failures are tallied, never escalated
func createAdminGroups(timeout time.Duration) engine.Handler {
	return func(ctx context.Context, run *engine.Run) (
		*api.StepResult, error,
	) {
		names := run.Inputs.GetStrings("groups")
		if len(names) == 0 {
			names = defaultGroups
		}

		c := client.New(run.Config, timeout)

		var created, skipped []string
		var errs []api.ItemError
		for _, name := range names {
			switch id, err := createGroup(ctx, c, name); {
			case err != nil:
				run.Warnf("Failed to create group %q: %v", name, err)
				errs = append(errs, api.ItemError{
					Item:  name,
					Error: err.Error(),
				})
			case id == "":
				run.Infof("Group %q already exists, skipping", name)
				skipped = append(skipped, name)
			default:
				run.Successf("Created group %q", name)
				created = append(created, name)
			}
		}

		res := &api.StepResult{
			Success: len(errs) == 0,
			Message: fmt.Sprintf(
				"Groups created: %d created, %d already existed, "+
					"%d failed",
				len(created), len(skipped), len(errs),
			),
			Data: map[string]any{
				"created":      created,
				"skipped":      skipped,
				"createdCount": len(created),
				"skippedCount": len(skipped),
				"errorCount":   len(errs),
			},
		}
		if len(errs) > 0 {
			res.Data["errors"] = errs
		}
		return res, nil
	}
}

// createGroup returns the new group's ID, or "" when the group already
// existed
func createGroup(
	ctx context.Context, c *client.HTTPClient, name string,
) (string, error) {
	existing, err := c.Get(ctx, groupsPath+"?q="+url.QueryEscape(name))
	if err != nil {
		return "", err
	}
	for _, g := range existing.Array() {
		if g.Get("profile.name").String() == name {
			return "", nil
		}
	}

	res, err := c.PostJSON(ctx, groupsPath, map[string]any{
		"profile": map[string]any{
			"name":        name,
			"description": "Created by " + string(api.ScriptCreateAdminGroups),
		},
	})
	if err != nil {
		if client.IsAlreadyExists(err) {
			return "", nil
		}
		return "", err
	}
	return res.Get("id").String(), nil
}
