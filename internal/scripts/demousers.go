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

type demoProfile struct {
	FirstName string
	LastName  string
	Login     string
}

const usersPath = "/api/v1/users"

// demoProfiles is the fixed set of demo users. Logins are the natural
// key; reruns skip any that already exist
var demoProfiles = []demoProfile{
	{"Ava", "Alvarez", "ava.alvarez@example.com"},
	{"Ben", "Brooks", "ben.brooks@example.com"},
	{"Cara", "Chen", "cara.chen@example.com"},
	{"Dev", "Desai", "dev.desai@example.com"},
	{"Elena", "Evans", "elena.evans@example.com"},
	{"Finn", "Foster", "finn.foster@example.com"},
	{"Grace", "Garcia", "grace.garcia@example.com"},
	{"Hugo", "Hayes", "hugo.hayes@example.com"},
	{"Iris", "Ibrahim", "iris.ibrahim@example.com"},
	{"Jack", "Jensen", "jack.jensen@example.com"},
	{"Kira", "Kumar", "kira.kumar@example.com"},
	{"Liam", "Lopez", "liam.lopez@example.com"},
	{"Mia", "Mori", "mia.mori@example.com"},
	{"Noah", "Novak", "noah.novak@example.com"},
	{"Olive", "Okafor", "olive.okafor@example.com"},
}

// populateDemoUsers find-or-creates each demo profile. Individual
// failures never abort the batch; they are tallied into the result
func populateDemoUsers(timeout time.Duration) engine.Handler {
	return func(ctx context.Context, run *engine.Run) (
		*api.StepResult, error,
	) {
		c := client.New(run.Config, timeout)

		var created, skipped int
		var errs []api.ItemError
		for _, p := range demoProfiles {
			switch outcome, err := createUser(ctx, c, run, p); {
			case err != nil:
				run.Warnf("Failed to create %s: %v", p.Login, err)
				errs = append(errs, api.ItemError{
					Item:  p.Login,
					Error: err.Error(),
				})
			case outcome == outcomeSkipped:
				skipped++
			default:
				created++
			}
		}

		res := &api.StepResult{
			Success: len(errs) == 0,
			Message: fmt.Sprintf(
				"Demo users populated: %d created, %d already "+
					"existed, %d failed",
				created, skipped, len(errs),
			),
			Data: map[string]any{
				"createdCount": created,
				"skippedCount": skipped,
				"errorCount":   len(errs),
			},
		}
		if len(errs) > 0 {
			res.Data["errors"] = errs
		}
		return res, nil
	}
}

type createOutcome int

const (
	outcomeCreated createOutcome = iota
	outcomeSkipped
)

func createUser(
	ctx context.Context, c *client.HTTPClient, run *engine.Run,
	p demoProfile,
) (createOutcome, error) {
	search := fmt.Sprintf(`profile.login eq "%s"`, p.Login)
	existing, err := c.Get(
		ctx, usersPath+"?search="+url.QueryEscape(search),
	)
	if err != nil {
		return 0, err
	}
	if len(existing.Array()) > 0 {
		run.Infof("User %s already exists, skipping", p.Login)
		return outcomeSkipped, nil
	}

	_, err = c.PostJSON(ctx, usersPath+"?activate=true", map[string]any{
		"profile": map[string]any{
			"firstName": p.FirstName,
			"lastName":  p.LastName,
			"email":     p.Login,
			"login":     p.Login,
		},
	})
	if err != nil {
		if client.IsAlreadyExists(err) {
			run.Infof("User %s already exists, skipping", p.Login)
			return outcomeSkipped, nil
		}
		return 0, err
	}

	run.Successf("Created user %s", p.Login)
	return outcomeCreated, nil
}
