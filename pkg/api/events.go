package api

type (
	// LogLevel classifies a progress event
	LogLevel string

	// LogEvent is one progress frame emitted during a script run. The
	// engine, never the handler, stamps Timestamp at emission time.
	// Exactly one event per run has Done set, and it is always the last
	// event on the stream; only that event carries Result
	LogEvent struct {
		Result    *StepResult `json:"result,omitempty"`
		Level     LogLevel    `json:"level"`
		Message   string      `json:"message"`
		Step      string      `json:"step,omitempty"`
		Timestamp int64       `json:"timestamp"`
		Done      bool        `json:"done"`
	}
)

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarn    LogLevel = "warn"
	LevelError   LogLevel = "error"
)

// TerminalLevel derives the level of a terminal event from its result
func TerminalLevel(res *StepResult) LogLevel {
	if res != nil && res.Success {
		return LevelSuccess
	}
	return LevelError
}
