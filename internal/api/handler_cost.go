package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func deviceIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return 0, false
	}
	return id, true
}

// EstimateDeviceCost handles GET /api/cost/device/{device_id}/estimate?hours=.
func (h *Handler) EstimateDeviceCost(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	hours := 5.0
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'hours' value"})
			return
		}
		hours = parsed
	}

	estimate, err := h.aggregator.EstimateOverHours(c.Request.Context(), deviceID, hours)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deviceId":           deviceID,
		"hours":              estimate.Hours,
		"assumedPowerW":      estimate.AssumedPowerW,
		"estimatedEnergyKwh": estimate.EnergyKWh,
		"ratePerKwh":         estimate.RatePerKWh,
		"estimatedCost":      estimate.Cost.Cost,
	})
}

// GetCurrentMonthDeviceCost handles GET /api/cost/device/{device_id}/current-month.
func (h *Handler) GetCurrentMonthDeviceCost(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	now := time.Now().In(h.loc)
	cost, err := h.aggregator.CostForDeviceMonth(c.Request.Context(), deviceID, now.Year(), now.Month(), h.loc)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deviceId":   deviceID,
		"year":       now.Year(),
		"month":      int(now.Month()),
		"energyKwh":  cost.EnergyKWh,
		"ratePerKwh": cost.RatePerKWh,
		"cost":       cost.Cost,
	})
}

// GetTodayDeviceCost handles GET /api/cost/device/{device_id}/today.
func (h *Handler) GetTodayDeviceCost(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	now := time.Now().In(h.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 0, 1)

	cost, err := h.aggregator.CostForDevice(c.Request.Context(), deviceID, from, to)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deviceId":   deviceID,
		"year":       now.Year(),
		"month":      int(now.Month()),
		"day":        now.Day(),
		"energyKwh":  cost.EnergyKWh,
		"ratePerKwh": cost.RatePerKWh,
		"cost":       cost.Cost,
	})
}

// GetLastHourDeviceCost handles GET /api/cost/device/{device_id}/last-hour.
func (h *Handler) GetLastHourDeviceCost(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	to := time.Now()
	from := to.Add(-time.Hour)

	cost, err := h.aggregator.CostForDevice(c.Request.Context(), deviceID, from, to)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deviceId":   deviceID,
		"fromHour":   from.In(h.loc).Hour(),
		"toHour":     to.In(h.loc).Hour(),
		"energyKwh":  cost.EnergyKWh,
		"ratePerKwh": cost.RatePerKWh,
		"cost":       cost.Cost,
	})
}

// GetCurrentMonthSummary handles GET /api/cost/current-month/summary.
func (h *Handler) GetCurrentMonthSummary(c *gin.Context) {
	now := time.Now().In(h.loc)
	perCategory, err := h.aggregator.CostPerCategory(c.Request.Context(), now.Year(), now.Month(), h.loc)
	if err != nil {
		abortForError(c, err)
		return
	}

	total := decimal.Zero
	for _, cost := range perCategory {
		total = total.Add(cost)
	}

	c.JSON(http.StatusOK, gin.H{
		"year":        now.Year(),
		"month":       int(now.Month()),
		"totalCost":   total,
		"perCategory": perCategory,
	})
}

// GetCurrentMonthLightingCost handles
// GET /api/cost/lighting/device/{device_id}/current-month.
func (h *Handler) GetCurrentMonthLightingCost(c *gin.Context) {
	deviceID, ok := deviceIDParam(c)
	if !ok {
		return
	}

	now := time.Now().In(h.loc)
	cost, err := h.aggregator.LightingCostForDevice(c.Request.Context(), deviceID, now.Year(), now.Month(), h.loc)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deviceId":  deviceID,
		"year":      now.Year(),
		"month":     int(now.Month()),
		"energyKwh": cost.EnergyKWh,
		"cost":      cost.Cost,
	})
}
