package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetMonthlyAdvice handles GET /api/advisor/monthly.
func (h *Handler) GetMonthlyAdvice(c *gin.Context) {
	now := time.Now().In(h.loc)
	advices, err := h.advisor.Generate(c.Request.Context(), now.Year(), now.Month(), h.loc)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, advices)
}
