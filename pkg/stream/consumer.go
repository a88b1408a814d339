// Package stream provides the observer side of the run protocol: it
// opens a run's event stream, incrementally parses framed events into an
// ordered log, and tracks run, cancellation, and error state
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kode4food/orgkit/pkg/api"
)

type (
	// Status is the consumer's lifecycle state
	Status string

	// Consumer follows one logical run at a time. Calling Run again
	// always supersedes the previous run: the old transport is aborted
	// first and its late failures are never mistaken for the new run's
	// state, guarded by cancellation-handle identity
	Consumer struct {
		httpClient *http.Client
		baseURL    string

		mu     sync.Mutex
		status Status
		events []api.LogEvent
		result *api.StepResult
		errMsg string
		active *handle
	}

	// handle identifies one transport's cancellation scope
	handle struct {
		cancel context.CancelFunc
	}
)

const (
	StatusIdle      Status = "idle"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusErrored   Status = "errored"
	StatusCancelled Status = "cancelled"
)

const (
	dataPrefix = "data: "

	// maxFrameSize caps a single frame line. Terminal events nest every
	// child result, so frames can far exceed bufio's default token limit
	maxFrameSize = 1 << 20
)

// ErrStreamRejected is returned inside the error message when the run
// endpoint refuses to open a stream
var ErrStreamRejected = errors.New("run request rejected")

// NewConsumer creates a Consumer for the service at baseURL. A nil
// httpClient falls back to a default with no overall timeout, since a
// stream stays open for the lifetime of a run
func NewConsumer(baseURL string, httpClient *http.Client) *Consumer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Consumer{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		status:     StatusIdle,
	}
}

// Run starts following a new run, superseding any run in flight. The
// log buffer is cleared before the transport opens
func (c *Consumer) Run(ctx context.Context, req *api.RunRequest) {
	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{cancel: cancel}

	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
	}
	c.active = h
	c.events = nil
	c.result = nil
	c.errMsg = ""
	c.status = StatusStreaming
	c.mu.Unlock()

	go c.stream(runCtx, h, req)
}

// Cancel aborts the in-flight transport read. The accumulated log stays
// visible and a synthetic cancellation entry is recorded
func (c *Consumer) Cancel() {
	c.mu.Lock()
	h := c.active
	if h != nil && c.status == StatusStreaming {
		c.status = StatusCancelled
		c.events = append(c.events, api.LogEvent{
			Level:     api.LevelWarn,
			Message:   "Cancelled",
			Timestamp: time.Now().UnixMilli(),
		})
	}
	c.mu.Unlock()

	if h != nil {
		h.cancel()
	}
}

// Status returns the consumer's current lifecycle state
func (c *Consumer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Running reports whether a run is still streaming
func (c *Consumer) Running() bool {
	return c.Status() == StatusStreaming
}

// Events returns a snapshot of the ordered, append-only event log
func (c *Consumer) Events() []api.LogEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]api.LogEvent, len(c.events))
	copy(res, c.events)
	return res
}

// Result returns the terminal result once the run is done
func (c *Consumer) Result() *api.StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Err returns the transport error message, if the run errored
func (c *Consumer) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Consumer) stream(
	ctx context.Context, h *handle, req *api.RunRequest,
) {
	defer h.cancel()

	body, err := json.Marshal(map[string]any{
		"config": req.Config,
		"inputs": req.Inputs,
	})
	if err != nil {
		c.fail(h, err)
		return
	}

	url := fmt.Sprintf(
		"%s/api/scripts/%s/run", c.baseURL, req.ScriptID,
	)
	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		c.fail(h, err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.fail(h, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.fail(h, fmt.Errorf("%w: HTTP %d: %s",
			ErrStreamRejected, resp.StatusCode,
			strings.TrimSpace(string(raw))))
		return
	}

	c.parse(ctx, h, resp.Body)
}

// parse accumulates marker-prefixed lines until a blank line completes a
// frame. Malformed frames are skipped without terminating the stream
func (c *Consumer) parse(
	ctx context.Context, h *handle, body io.Reader,
) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	var frame strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if frame.Len() == 0 {
				continue
			}
			done := c.consumeFrame(h, frame.String())
			frame.Reset()
			if done {
				return
			}
			continue
		}

		if strings.HasPrefix(line, dataPrefix) {
			frame.WriteString(strings.TrimPrefix(line, dataPrefix))
		}
	}

	err := scanner.Err()
	if err == nil {
		err = errors.New("stream closed before terminal event")
	}
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	c.fail(h, err)
}

// consumeFrame parses and applies one frame, reporting whether it was
// the terminal event
func (c *Consumer) consumeFrame(h *handle, data string) bool {
	var ev api.LogEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		// skip malformed frames; the stream stays open
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != h {
		return true
	}

	c.events = append(c.events, ev)
	if ev.Done {
		c.result = ev.Result
		c.status = StatusDone
	}
	return ev.Done
}

// fail records a transport fault, distinguishing intentional
// cancellation from genuine errors. A superseded handle's failure is
// ignored so it cannot clobber a newer run's state
func (c *Consumer) fail(h *handle, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != h || c.status != StatusStreaming {
		return
	}

	if errors.Is(err, context.Canceled) {
		c.status = StatusCancelled
		c.events = append(c.events, api.LogEvent{
			Level:     api.LevelWarn,
			Message:   "Cancelled",
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	c.status = StatusErrored
	c.errMsg = err.Error()
}
