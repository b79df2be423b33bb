package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/recordbay/recordbay/internal/invoice/domain"
	"github.com/recordbay/recordbay/internal/period"
	"github.com/recordbay/recordbay/internal/volume"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, invoicedomain.ErrInvoiceEmpty),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, volume.ErrInvalidDimension),
		errors.Is(err, errInvalidRequest):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

var errInvalidRequest = errors.New("invalid_request")

func invalidRequestError() error { return errInvalidRequest }
