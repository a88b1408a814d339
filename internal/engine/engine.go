package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/kode4food/orgkit/internal/config"
	"github.com/kode4food/orgkit/pkg/api"
	"github.com/kode4food/orgkit/pkg/log"
)

type (
	// Engine drives script runs to completion or error, converting each
	// handler emission into an ordered event stream terminated by
	// exactly one done event carrying the final result
	Engine struct {
		registry *Registry
		bufSize  int
	}
)

// New creates an engine over the given script registry
func New(registry *Registry, cfg *config.Config) *Engine {
	bufSize := cfg.EmitBufferSize
	if bufSize <= 0 {
		bufSize = config.DefaultEmitBufferSize
	}
	return &Engine{
		registry: registry,
		bufSize:  bufSize,
	}
}

// Registry returns the engine's script registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Run validates the request and starts the script on its own execution
// context. The returned channel delivers events in emission order and is
// closed after the terminal event. Validation failures are returned
// immediately and no stream is opened. Concurrent identical requests are
// not deduplicated; that is the caller's responsibility
func (e *Engine) Run(
	ctx context.Context, req *api.RunRequest,
) (<-chan api.LogEvent, error) {
	script, err := e.registry.Get(req.ScriptID)
	if err != nil {
		return nil, err
	}

	if script.Governance {
		err = req.Config.ValidateGovernance()
	} else {
		err = req.Config.Validate()
	}
	if err != nil {
		return nil, err
	}

	events := make(chan api.LogEvent, e.bufSize)
	go e.drive(ctx, script, req, events)
	return events, nil
}

func (e *Engine) drive(
	ctx context.Context, script *Script, req *api.RunRequest,
	events chan api.LogEvent,
) {
	defer close(events)

	stamp := newStamper()
	run := &Run{
		Config: req.Config,
		Inputs: req.Inputs,
		emit: func(ev api.LogEvent) {
			ev.Timestamp = stamp()
			ev.Done = false
			ev.Result = nil
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		},
	}

	started := time.Now()
	res := e.invoke(ctx, script, run)
	slog.Info("Script run finished",
		log.ScriptID(script.ID),
		slog.Bool("success", res.Success),
		slog.Duration("duration", time.Since(started)))

	terminal := api.LogEvent{
		Result:    res,
		Level:     api.TerminalLevel(res),
		Message:   res.Message,
		Timestamp: stamp(),
		Done:      true,
	}
	select {
	case events <- terminal:
	case <-ctx.Done():
		// The observer is gone. Deliver best-effort so a local
		// drainer still sees the run terminate
		select {
		case events <- terminal:
		default:
		}
	}
}

// invoke runs the handler, converting errors and panics into a failed
// result so a faulting script can never leave the stream unterminated
func (e *Engine) invoke(
	ctx context.Context, script *Script, run *Run,
) (res *api.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Script panicked",
				log.ScriptID(script.ID),
				slog.Any("panic", r))
			res = api.Failf("script %s panicked: %v", script.ID, r)
		}
	}()

	result, err := script.Handler(ctx, run)
	if err != nil {
		return api.FailErr(err)
	}
	if result == nil {
		return api.Failf("script %s returned no result", script.ID)
	}
	return result
}

// newStamper returns a millisecond timestamp source that never goes
// backwards within a run
func newStamper() func() int64 {
	var last int64
	return func() int64 {
		now := time.Now().UnixMilli()
		if now < last {
			now = last
		}
		last = now
		return now
	}
}
