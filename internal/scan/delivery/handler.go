package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mailsub-backend/internal/scan"
	subrepo "mailsub-backend/internal/subscription/repository"
	userdomain "mailsub-backend/internal/user/domain"
)

// SyncHandler exposes manual scan triggering and scan history.
type SyncHandler struct {
	engine   *scan.Engine
	syncLogs subrepo.SyncLogRepository
}

func NewSyncHandler(engine *scan.Engine, syncLogs subrepo.SyncLogRepository) *SyncHandler {
	return &SyncHandler{
		engine:   engine,
		syncLogs: syncLogs,
	}
}

// TriggerSync runs a scan pass for one of the user's accounts right now
// POST /api/sync/:account
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	userID := c.GetString("userID")
	accountType := c.Param("account")

	if accountType != userdomain.AccountGmail && accountType != userdomain.AccountOutlook {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown account type"})
		return
	}

	syncLog, err := h.engine.RunPass(c.Request.Context(), userID, accountType)
	if err != nil {
		// The failed pass is already recorded in the sync log; return it
		// alongside the error when available.
		if syncLog != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "sync_log": syncLog})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, syncLog)
}

// GetSyncLogs returns the user's most recent scan reports
// GET /api/sync/logs?limit=20
func (h *SyncHandler) GetSyncLogs(c *gin.Context) {
	userID := c.GetString("userID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	logs, err := h.syncLogs.FindByUserID(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sync_logs": logs})
}
