package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vpe/internal/services"
)

// StatusHandler serves the public platform counters.
type StatusHandler struct {
	statusService services.StatusServicer
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(statusService services.StatusServicer) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

// GetStatus handles the platform status counters
// @Summary     Platform status
// @Description Get row counts for users, companies, favorites, and financial records
// @Tags        status
// @Produce     json
// @Success     200 {object} services.StatusCounts
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	counts, err := h.statusService.Counts(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}
