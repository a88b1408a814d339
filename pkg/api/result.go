package api

import "fmt"

type (
	// StepResult is the outcome of one script run. Message is always
	// populated, even on success. Data carries operation-specific detail
	// such as per-item tallies or created entity identifiers. A result is
	// constructed once per run and never mutated after return
	StepResult struct {
		Data    map[string]any `json:"data,omitempty"`
		Message string         `json:"message"`
		Success bool           `json:"success"`
	}

	// ItemError records the failure of a single item within a batch
	// operation. Batch operations fail an individual item, not the batch
	ItemError struct {
		Item  string `json:"item"`
		Error string `json:"error"`
	}
)

// Succeed creates a successful result with the given message
func Succeed(msg string) *StepResult {
	return &StepResult{Success: true, Message: msg}
}

// Succeedf creates a successful result with a formatted message
func Succeedf(format string, args ...any) *StepResult {
	return Succeed(fmt.Sprintf(format, args...))
}

// Fail creates a failed result with the given message
func Fail(msg string) *StepResult {
	return &StepResult{Success: false, Message: msg}
}

// Failf creates a failed result with a formatted message
func Failf(format string, args ...any) *StepResult {
	return Fail(fmt.Sprintf(format, args...))
}

// FailErr creates a failed result carrying the error's text
func FailErr(err error) *StepResult {
	return Fail(err.Error())
}

// WithData returns the result with a data entry added
func (sr *StepResult) WithData(name string, value any) *StepResult {
	if sr.Data == nil {
		sr.Data = map[string]any{}
	}
	sr.Data[name] = value
	return sr
}
