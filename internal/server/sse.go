package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/orgkit/pkg/api"
)

// eventStream writes framed LogEvents to a server-sent-event response.
// Each frame is a "data:" line holding the JSON-encoded event, terminated
// by a blank line, and is flushed immediately so intermediaries cannot
// batch or reorder frames
type eventStream struct {
	w gin.ResponseWriter
}

func startEventStream(c *gin.Context) *eventStream {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
	return &eventStream{w: c.Writer}
}

func (s *eventStream) Write(ev *api.LogEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
