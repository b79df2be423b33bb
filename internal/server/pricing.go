package server

import (
	"github.com/gin-gonic/gin"

	"github.com/recordbay/recordbay/internal/volume"
)

type volumeQuoteRequest struct {
	Length float64 `json:"length" binding:"required"`
	Width  float64 `json:"width" binding:"required"`
	Height float64 `json:"height" binding:"required"`
}

type volumeQuoteResponse struct {
	Dimensions        volume.Dimensions `json:"dimensions"`
	StandardBox       volume.Dimensions `json:"standard_box"`
	StandardRateCents int64             `json:"standard_rate_cents"`
	PriceCents        int64             `json:"price_cents"`
}

// VolumeQuote prices a non-standard container against the company's
// reference box without touching any stored record.
func (s *Server) VolumeQuote(c *gin.Context) {
	var req volumeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pricer := s.aggregator.Pricer()
	dims := volume.Dimensions{Length: req.Length, Width: req.Width, Height: req.Height}
	price, err := pricer.Price(dims)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, volumeQuoteResponse{
		Dimensions:        dims,
		StandardBox:       pricer.Standard(),
		StandardRateCents: pricer.StandardRateCents(),
		PriceCents:        price,
	})
}
