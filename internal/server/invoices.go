package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	"github.com/recordbay/recordbay/internal/period"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var filter invoicedomain.ListFilter

	if raw := strings.TrimSpace(c.Query("customer_id")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		filter.CustomerID = &id
	}
	if raw := strings.TrimSpace(c.Query("period")); raw != "" {
		p, err := period.Parse(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filter.Period = &p
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, invoices)
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseID(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, inv)
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	id, err := parseID(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.Finalize(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, inv)
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return snowflake.ID(v), nil
}
