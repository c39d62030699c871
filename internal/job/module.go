package job

import (
	apphttp "coldlead_backend/internal/http"
)

// Module mounts the outreach trigger routes.
type Module struct {
	handler *Handler
}

func NewModule(ctrl *Controller) *Module {
	return &Module{handler: NewHandler(ctrl)}
}

func (m *Module) Name() string {
	return "outreach"
}

// RegisterRoutes mounts every route behind the trigger secret, then the
// per-IP trigger rate limit. Rejected tokens never reach the limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/outreach")
	group.Use(ctx.TriggerAuth, ctx.TriggerRateLimiter.RateLimit())

	group.POST("/cron", m.handler.HandleRun)
	group.GET("/cron", m.handler.HandleRun)
	group.POST("/sync", m.handler.HandleSync)
	group.POST("/send", m.handler.HandleSend)
	group.POST("/retry", m.handler.HandleRetry)
	group.GET("/stats", m.handler.HandleStats)
}

var _ apphttp.Module = (*Module)(nil)
