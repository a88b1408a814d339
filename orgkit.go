// Package orgkit automates one-time setup workflows against an identity
// management org, streaming live progress to observers while each workflow
// runs
package orgkit

const (
	// Name is the service name reported in logs and health responses
	Name = "orgkit"

	// Version is the service version reported in logs and health responses
	Version = "0.1.0"
)
