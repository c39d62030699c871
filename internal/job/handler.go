package job

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"coldlead_backend/platform/apperr"
	"coldlead_backend/platform/httpkit"
)

const maxLimit = 100

// Handler exposes the controller over HTTP.
type Handler struct {
	ctrl *Controller
}

func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// HandleRun syncs when the queue is empty, then sends one batch.
// POST|GET /api/v1/outreach/cron
func (h *Handler) HandleRun(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	summary, err := h.ctrl.Run(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// HandleSync enrolls new leads.
// POST /api/v1/outreach/sync
func (h *Handler) HandleSync(c *gin.Context) {
	summary, err := h.ctrl.Sync(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true, "sync": summary})
}

// HandleSend dispatches pending entries.
// POST /api/v1/outreach/send?limit=N
func (h *Handler) HandleSend(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	httpkit.OK(c, h.ctrl.Send(c.Request.Context(), limit))
}

// HandleRetry requeues failed entries.
// POST /api/v1/outreach/retry?limit=N
func (h *Handler) HandleRetry(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	httpkit.OK(c, h.ctrl.Retry(c.Request.Context(), limit))
}

// HandleStats returns the queue counts.
// GET /api/v1/outreach/stats
func (h *Handler) HandleStats(c *gin.Context) {
	httpkit.OK(c, gin.H{"ok": true, "stats": h.ctrl.Stats(c.Request.Context())})
}

// parseLimit reads ?limit=N. Missing means the configured batch size.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		httpkit.HandleError(c, apperr.BadRequest("limit must be an integer between 1 and 100"))
		return 0, false
	}
	return n, true
}
