package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/orgkit/pkg/api"
)

func (s *Server) listScripts(c *gin.Context) {
	scripts := s.engine.Registry().List()
	c.JSON(http.StatusOK, api.ScriptsListResponse{
		Scripts: scripts,
		Count:   len(scripts),
	})
}
