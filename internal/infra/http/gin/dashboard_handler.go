package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/handlers/dashboard"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/queries"
)

type DashboardHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h *DashboardHandler) Owner(c *gin.Context) {
	q := dashboard.OwnerDashboardQuery{Actor: currentActor(c), OwnerID: c.Query("owner_id")}
	view, err := queries.Ask[dashboard.OwnerDashboardQuery, dto.OwnerDashboard](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) Tenant(c *gin.Context) {
	q := dashboard.TenantDashboardQuery{Actor: currentActor(c)}
	view, err := queries.Ask[dashboard.TenantDashboardQuery, dto.TenantDashboard](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) Admin(c *gin.Context) {
	q := dashboard.AdminStatsQuery{Actor: currentActor(c)}
	view, err := queries.Ask[dashboard.AdminStatsQuery, dto.AdminStats](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
