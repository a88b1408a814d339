package engine

import (
	"fmt"

	"github.com/kode4food/orgkit/pkg/api"
)

type (
	// Run is the context a handler executes in: the caller-supplied
	// credential bundle and inputs, plus a fire-and-forget emitter for
	// progress events. The engine stamps timestamps and owns run
	// completion; events emitted here are never terminal
	Run struct {
		Config *api.OrgConfig
		Inputs api.Inputs
		step   string
		emit   func(api.LogEvent)
	}
)

// WithStep returns a Run whose emitted events carry the given phase label
func (r *Run) WithStep(label string) *Run {
	res := *r
	res.step = label
	return &res
}

// Emit sends one progress event at the given level
func (r *Run) Emit(level api.LogLevel, msg string) {
	r.emit(api.LogEvent{
		Level:   level,
		Message: msg,
		Step:    r.step,
	})
}

func (r *Run) Info(msg string) {
	r.Emit(api.LevelInfo, msg)
}

func (r *Run) Infof(format string, args ...any) {
	r.Info(fmt.Sprintf(format, args...))
}

func (r *Run) Success(msg string) {
	r.Emit(api.LevelSuccess, msg)
}

func (r *Run) Successf(format string, args ...any) {
	r.Success(fmt.Sprintf(format, args...))
}

func (r *Run) Warn(msg string) {
	r.Emit(api.LevelWarn, msg)
}

func (r *Run) Warnf(format string, args ...any) {
	r.Warn(fmt.Sprintf(format, args...))
}

func (r *Run) Error(msg string) {
	r.Emit(api.LevelError, msg)
}

func (r *Run) Errorf(format string, args ...any) {
	r.Error(fmt.Sprintf(format, args...))
}
