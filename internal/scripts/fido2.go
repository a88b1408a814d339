package scripts

import (
	"context"
	"time"

	"github.com/kode4food/orgkit/internal/client"
	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/pkg/api"
)

const (
	authenticatorsPath = "/api/v1/authenticators"
	webAuthnKey        = "webauthn"
)

// enableFIDO2 activates the WebAuthn authenticator. An already-active
// authenticator is success-with-skip, so reruns are safe
func enableFIDO2(timeout time.Duration) engine.Handler {
	return func(ctx context.Context, run *engine.Run) (
		*api.StepResult, error,
	) {
		c := client.New(run.Config, timeout)

		run.Info("Looking up the FIDO2 (WebAuthn) authenticator...")
		res, err := c.Get(ctx, authenticatorsPath)
		if err != nil {
			return nil, err
		}

		var id, status string
		for _, a := range res.Array() {
			if a.Get("key").String() == webAuthnKey {
				id = a.Get("id").String()
				status = a.Get("status").String()
				break
			}
		}
		if id == "" {
			return api.Fail(
				"FIDO2 (WebAuthn) authenticator not found in this org",
			), nil
		}

		if status == "ACTIVE" {
			return api.Succeed(
				"FIDO2 (WebAuthn) authenticator is already active.",
			), nil
		}

		run.Info("Activating FIDO2 (WebAuthn) authenticator...")
		_, err = c.Post(
			ctx, authenticatorsPath+"/"+id+"/lifecycle/activate", "",
		)
		if err != nil {
			return nil, err
		}
		return api.Succeed(
			"FIDO2 (WebAuthn) authenticator activated.",
		).WithData("authenticatorId", id), nil
	}
}
