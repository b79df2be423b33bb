package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recordbay/recordbay/internal/period"
)

type triggerRunRequest struct {
	Period string `json:"period" binding:"required"`
}

// TriggerBillingRun executes the batch synchronously and returns the
// operator summary. Re-triggering a billed period is a safe no-op.
func (s *Server) TriggerBillingRun(c *gin.Context) {
	var req triggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	p, err := period.Parse(strings.TrimSpace(req.Period))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.runner.RunBilling(c.Request.Context(), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, summary)
}

func (s *Server) ListBillingRuns(c *gin.Context) {
	p, err := period.Parse(strings.TrimSpace(c.Query("period")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	runs, err := s.runner.ListRuns(c.Request.Context(), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, runs)
}
