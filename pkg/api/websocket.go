package api

type (
	// RunEvent is a progress event as mirrored to WebSocket observers,
	// tagged with the run and script that produced it
	RunEvent struct {
		LogEvent
		RunID    RunID    `json:"run_id"`
		ScriptID ScriptID `json:"script_id"`
	}
)
