package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"home-energy-backend/internal/advisor"
	"home-energy-backend/internal/billing"
	"home-energy-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	rates      *billing.Rates
	aggregator *billing.Aggregator
	advisor    *advisor.Generator
	webpush    *webpush.Options
	loc        *time.Location
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, rates *billing.Rates, aggregator *billing.Aggregator, adv *advisor.Generator, webpushOptions *webpush.Options, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		store:      s,
		rates:      rates,
		aggregator: aggregator,
		advisor:    adv,
		webpush:    webpushOptions,
		loc:        loc,
	}
}

// abortForError maps the domain's failure modes onto HTTP statuses.
func abortForError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, billing.ErrInvalidEstimate):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrNoPowerData):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
