// internal/handlers/event.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tracelink/provenance-backend/internal/services"
	"github.com/tracelink/provenance-backend/internal/utils"
)

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GET /events
func (h *EventHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var productID *uint64
	if idStr := c.Query("product_id"); idStr != "" {
		if id, err := strconv.ParseUint(idStr, 10, 64); err == nil {
			productID = &id
		}
	}

	events, total, err := h.eventService.List(productID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(events, total, params)
	utils.PaginatedResponse(c, result)
}
