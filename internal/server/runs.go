package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kode4food/orgkit/pkg/api"
	"github.com/kode4food/orgkit/pkg/log"
)

type runBody struct {
	Config *api.OrgConfig `json:"config"`
	Inputs api.Inputs     `json:"inputs"`
}

var ErrInvalidJSON = errors.New("invalid JSON body")

// handleRun validates the request, then streams the run's events as SSE
// frames. Pre-flight failures (unknown script, missing credential) are
// rejected with a 400 JSON body before any streaming starts
func (s *Server) handleRun(c *gin.Context) {
	scriptID := api.SanitizeID(api.ScriptID(c.Param("scriptID")))

	var body runBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	req := &api.RunRequest{
		ScriptID: scriptID,
		Config:   body.Config,
		Inputs:   body.Inputs,
	}

	events, err := s.engine.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  err.Error(),
			Status: http.StatusBadRequest,
		})
		return
	}

	runID := api.RunID(uuid.NewString())
	slog.Info("Run started",
		log.ScriptID(scriptID),
		log.RunID(runID))

	stream := startEventStream(c)
	writeFailed := false
	for ev := range events {
		s.broadcast(&api.RunEvent{
			LogEvent: ev,
			RunID:    runID,
			ScriptID: scriptID,
		})
		if writeFailed {
			// keep draining so the engine goroutine can finish
			continue
		}
		if err := stream.Write(&ev); err != nil {
			slog.Warn("Run stream write failed",
				log.ScriptID(scriptID),
				log.RunID(runID),
				log.Error(err))
			writeFailed = true
		}
	}
}
