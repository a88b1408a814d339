package api

type (
	// RunRequest contains parameters for executing a script
	RunRequest struct {
		Config   *OrgConfig `json:"config"`
		Inputs   Inputs     `json:"inputs,omitempty"`
		ScriptID ScriptID   `json:"script_id"`
	}

	// ScriptInfo provides summary information about a registered script
	ScriptInfo struct {
		ID          ScriptID `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Governance  bool     `json:"governance"`
	}

	// ScriptsListResponse contains the registered scripts
	ScriptsListResponse struct {
		Scripts []*ScriptInfo `json:"scripts"`
		Count   int           `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
