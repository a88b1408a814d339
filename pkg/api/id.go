package api

import (
	"regexp"
	"strings"
)

type (
	// ScriptID is a unique identifier for a setup script
	ScriptID string

	// RunID is a unique identifier for a single script run
	RunID string
)

// The closed set of script identifiers known to the engine. AllScriptIDs
// enumerates every member; the registry test asserts one-to-one coverage
const (
	ScriptEnableFIDO2         ScriptID = "enable-fido2"
	ScriptPopulateDemoUsers   ScriptID = "populate-demo-users"
	ScriptCreateAdminGroups   ScriptID = "create-admin-groups"
	ScriptBootstrapGovernance ScriptID = "bootstrap-governance"
	ScriptRunAll              ScriptID = "run-all"
)

// AllScriptIDs lists every script identifier in execution order. The run-all
// aggregate is last and never includes itself
var AllScriptIDs = []ScriptID{
	ScriptEnableFIDO2,
	ScriptPopulateDemoUsers,
	ScriptCreateAdminGroups,
	ScriptBootstrapGovernance,
	ScriptRunAll,
}

// InvalidIDChars matches characters not permitted in script IDs. Valid
// characters are: letters, digits, underscore, dot, hyphen, plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}
