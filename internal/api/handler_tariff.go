package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"home-energy-backend/internal/billing"
)

// GetTariffSettings handles GET /api/tariff/settings.
func (h *Handler) GetTariffSettings(c *gin.Context) {
	settings, err := h.rates.Current(c.Request.Context())
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateTariffSettings handles PUT /api/tariff/settings. Only fields present
// in the body are changed; the net rate is backfilled from gross + VAT when
// it is still missing.
func (h *Handler) UpdateTariffSettings(c *gin.Context) {
	var patch billing.TariffPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.rates.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
