// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forkchain/recipe-market/internal/services"
	"github.com/forkchain/recipe-market/internal/utils"
)

// AdminHandler exposes the operational switches: the per-component pause
// flags. Entitlement and price administration live on SubscriptionHandler.
type AdminHandler struct {
	pause *services.PauseRegistry
}

func NewAdminHandler(pause *services.PauseRegistry) *AdminHandler {
	return &AdminHandler{pause: pause}
}

var pauseComponents = []string{
	services.ComponentSubscriptions,
	services.ComponentListings,
	services.ComponentSettlement,
}

// GET /admin/pause
func (h *AdminHandler) GetPauseStatus(c *gin.Context) {
	status := make(map[string]bool, len(pauseComponents))
	for _, component := range pauseComponents {
		status[component] = h.pause.IsPaused(component)
	}
	utils.SuccessResponse(c, gin.H{"paused": status})
}

// PUT /admin/pause/:component
func (h *AdminHandler) SetPaused(c *gin.Context) {
	component := c.Param("component")

	known := false
	for _, name := range pauseComponents {
		if name == component {
			known = true
			break
		}
	}
	if !known {
		utils.BadRequestResponse(c, "Unknown component", component)
		return
	}

	var req struct {
		Paused bool `json:"paused"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.pause.SetPaused(component, req.Paused); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"component": component,
		"paused":    req.Paused,
	})
}
