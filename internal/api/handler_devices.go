package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetDevices handles GET /api/devices, optionally filtered by ?category=.
func (h *Handler) GetDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context(), c.Query("category"))
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

type bulbDetailsRequest struct {
	BulbDescription *string  `json:"bulbDescription"`
	RatedPowerW     *float64 `json:"ratedPowerW"`
}

// UpdateBulbDetails handles POST /api/devices/{device_id}/bulb: a partial
// update of the user-supplied bulb description and rated power.
func (h *Handler) UpdateBulbDetails(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return
	}

	var req bulbDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.store.GetDevice(c.Request.Context(), deviceID)
	if err != nil {
		abortForError(c, err)
		return
	}

	if req.BulbDescription != nil {
		device.BulbDescription = *req.BulbDescription
	}
	if req.RatedPowerW != nil {
		device.RatedPowerW = req.RatedPowerW
	}

	if err := h.store.SaveDevice(c.Request.Context(), device); err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}
