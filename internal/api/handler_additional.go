package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"home-energy-backend/internal/model"
)

func additionalIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return 0, false
	}
	return id, true
}

// GetAdditionalDevices handles GET /api/additional-devices.
func (h *Handler) GetAdditionalDevices(c *gin.Context) {
	devices, err := h.store.ListAdditionalDevices(c.Request.Context())
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetAdditionalDevice handles GET /api/additional-devices/{id}.
func (h *Handler) GetAdditionalDevice(c *gin.Context) {
	id, ok := additionalIDParam(c)
	if !ok {
		return
	}
	device, err := h.store.GetAdditionalDevice(c.Request.Context(), id)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

type additionalDeviceRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	RatedPowerW *float64 `json:"ratedPowerW"`
	Description *string  `json:"description"`
}

// CreateAdditionalDevice handles POST /api/additional-devices.
func (h *Handler) CreateAdditionalDevice(c *gin.Context) {
	var req additionalDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	device := model.AdditionalDevice{
		Name:        *req.Name,
		RatedPowerW: req.RatedPowerW,
	}
	if req.Category != nil {
		device.Category = *req.Category
	}
	if req.Description != nil {
		device.Description = *req.Description
	}

	if err := h.store.SaveAdditionalDevice(c.Request.Context(), &device); err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

// UpdateAdditionalDevice handles PUT /api/additional-devices/{id}. Absent
// fields are left untouched.
func (h *Handler) UpdateAdditionalDevice(c *gin.Context) {
	id, ok := additionalIDParam(c)
	if !ok {
		return
	}

	var req additionalDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.store.GetAdditionalDevice(c.Request.Context(), id)
	if err != nil {
		abortForError(c, err)
		return
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		device.Name = *req.Name
	}
	if req.Category != nil {
		device.Category = *req.Category
	}
	if req.RatedPowerW != nil {
		device.RatedPowerW = req.RatedPowerW
	}
	if req.Description != nil {
		device.Description = *req.Description
	}

	if err := h.store.SaveAdditionalDevice(c.Request.Context(), device); err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

// DeleteAdditionalDevice handles DELETE /api/additional-devices/{id}.
func (h *Handler) DeleteAdditionalDevice(c *gin.Context) {
	id, ok := additionalIDParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteAdditionalDevice(c.Request.Context(), id); err != nil {
		abortForError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EstimateAdditionalDevice handles GET /api/additional-devices/{id}/estimate.
// It requires either ?hours= or both ?days= and ?avgHoursPerDay=.
func (h *Handler) EstimateAdditionalDevice(c *gin.Context) {
	id, ok := additionalIDParam(c)
	if !ok {
		return
	}

	var hours *float64
	var days *int
	var avgHoursPerDay *float64

	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'hours' value"})
			return
		}
		hours = &v
	}
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'days' value"})
			return
		}
		days = &v
	}
	if raw := c.Query("avgHoursPerDay"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'avgHoursPerDay' value"})
			return
		}
		avgHoursPerDay = &v
	}

	estimate, err := h.aggregator.EstimateAdditionalDevice(c.Request.Context(), id, hours, days, avgHoursPerDay)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}
