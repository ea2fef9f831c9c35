package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reg-gateway/internal/quota"
)

// StatsHandler expone la vista de solo lectura del cupo de registro.
type StatsHandler struct {
	logger *zap.Logger
	quota  quota.Store
}

// NewStatsHandler crea una instancia de StatsHandler.
func NewStatsHandler(logger *zap.Logger, quotaStore quota.Store) *StatsHandler {
	return &StatsHandler{
		logger: logger,
		quota:  quotaStore,
	}
}

// Stats maneja GET /api/stats. El frontend lo consulta cross-origin
// para pintar el cupo disponible.
func (h *StatsHandler) Stats(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")

	snap, err := h.quota.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("read quota snapshot failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read stats"})
		return
	}

	c.JSON(http.StatusOK, snap)
}
