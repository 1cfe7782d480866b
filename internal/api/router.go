package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"home-energy-backend/config"
	"home-energy-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router over a pre-built Handler.
func NewRouter(handler *Handler, serverCfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	limit := rate.Limit(10)
	if serverCfg.RateLimitPerSec > 0 {
		limit = rate.Limit(serverCfg.RateLimitPerSec)
	}
	rateLimiter := mw.RateLimiter(limit, 5)

	cacheTTL := 5 * time.Minute
	if serverCfg.CacheTTLSeconds > 0 {
		cacheTTL = time.Duration(serverCfg.CacheTTLSeconds) * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", caching, handler.GetDevices)
		api.POST("/devices/:device_id/bulb", handler.UpdateBulbDetails)

		api.GET("/cost/device/:device_id/estimate", handler.EstimateDeviceCost)
		api.GET("/cost/device/:device_id/current-month", caching, handler.GetCurrentMonthDeviceCost)
		api.GET("/cost/device/:device_id/today", caching, handler.GetTodayDeviceCost)
		api.GET("/cost/device/:device_id/last-hour", handler.GetLastHourDeviceCost)
		api.GET("/cost/current-month/summary", caching, handler.GetCurrentMonthSummary)
		api.GET("/cost/lighting/device/:device_id/current-month", caching, handler.GetCurrentMonthLightingCost)

		api.GET("/tariff/settings", handler.GetTariffSettings)
		api.PUT("/tariff/settings", handler.UpdateTariffSettings)

		api.GET("/additional-devices", handler.GetAdditionalDevices)
		api.GET("/additional-devices/:id", handler.GetAdditionalDevice)
		api.POST("/additional-devices", handler.CreateAdditionalDevice)
		api.PUT("/additional-devices/:id", handler.UpdateAdditionalDevice)
		api.DELETE("/additional-devices/:id", handler.DeleteAdditionalDevice)
		api.GET("/additional-devices/:id/estimate", handler.EstimateAdditionalDevice)

		api.GET("/advisor/monthly", caching, handler.GetMonthlyAdvice)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
