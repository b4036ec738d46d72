// internal/handlers/sync.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/c13agent/aaas-backend/internal/services"
	"github.com/c13agent/aaas-backend/internal/utils"
)

// SyncHandler exposes the Moltbook metrics refresh to the cron runner.
type SyncHandler struct {
	syncService *services.SyncService
}

func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// POST /sync/moltbook (GET accepted for manual runs)
func (h *SyncHandler) SyncMoltbook(c *gin.Context) {
	result, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Moltbook sync completed",
		"synced":  result.Synced,
		"errors":  result.Errors,
	})
}
