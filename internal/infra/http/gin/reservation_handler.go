package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/reservations"
	"rentdesk/internal/app/queries"
	domain "rentdesk/internal/domain/reservations"
)

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID   string `json:"listing_id" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	TenantName  string `json:"tenant_name"`
	TenantEmail string `json:"tenant_email"`
	TenantPhone string `json:"tenant_phone"`
	Notes       string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := reservations.CreateReservationCommand{
		Actor:           currentActor(c),
		ListingID:       req.ListingID,
		StartDate:       start,
		EndDate:         end,
		TenantName:      req.TenantName,
		TenantEmail:     req.TenantEmail,
		TenantPhone:     req.TenantPhone,
		Notes:           req.Notes,
		IdempotencyKeyV: idempotencyKey(c),
	}
	view, err := commands.Dispatch[reservations.CreateReservationCommand, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	q := reservations.GetReservationQuery{Actor: currentActor(c), ID: c.Param("id")}
	view, err := queries.Ask[reservations.GetReservationQuery, *dto.ReservationView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ReservationHandler) List(c *gin.Context) {
	h.list(c, reservations.Scope(c.Query("scope")))
}

func (h *ReservationHandler) Active(c *gin.Context) {
	h.list(c, reservations.ScopeActive)
}

func (h *ReservationHandler) Upcoming(c *gin.Context) {
	h.list(c, reservations.ScopeUpcoming)
}

func (h *ReservationHandler) list(c *gin.Context, scope reservations.Scope) {
	var statuses []domain.Status
	for _, raw := range splitList(c.QueryArray("status")) {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		statuses = append(statuses, status)
	}
	limit, offset := pageParams(c)
	q := reservations.ListReservationsQuery{
		Actor:     currentActor(c),
		Scope:     scope,
		ListingID: c.Query("listing_id"),
		Statuses:  statuses,
		Search:    c.Query("search"),
		Sort:      c.Query("sort"),
		Limit:     limit,
		Offset:    offset,
	}
	list, err := queries.Ask[reservations.ListReservationsQuery, dto.ReservationList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReservationHandler) ForListing(c *gin.Context) {
	q := reservations.ListingReservationsQuery{Actor: currentActor(c), ListingID: c.Param("id")}
	items, err := queries.Ask[reservations.ListingReservationsQuery, []dto.ReservationView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReservationHandler) CheckAvailability(c *gin.Context) {
	q := reservations.CheckAvailabilityQuery{
		ListingID: c.Param("id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	view, err := queries.Ask[reservations.CheckAvailabilityQuery, dto.AvailabilityView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ReservationHandler) change(c *gin.Context) reservations.StatusChange {
	return reservations.StatusChange{
		Actor:           currentActor(c),
		ReservationID:   c.Param("id"),
		IdempotencyKeyV: idempotencyKey(c),
	}
}

func (h *ReservationHandler) Confirm(c *gin.Context) {
	transition(c, h, reservations.ConfirmReservationCommand{StatusChange: h.change(c)})
}

func (h *ReservationHandler) MarkPaid(c *gin.Context) {
	transition(c, h, reservations.MarkPaidCommand{StatusChange: h.change(c)})
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	transition(c, h, reservations.CancelReservationCommand{StatusChange: h.change(c)})
}

func (h *ReservationHandler) Complete(c *gin.Context) {
	transition(c, h, reservations.CompleteReservationCommand{StatusChange: h.change(c)})
}

func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	transition(c, h, reservations.UpdateStatusCommand{StatusChange: h.change(c), Status: req.Status})
}

func transition[C commands.Command](c *gin.Context, h *ReservationHandler, cmd C) {
	view, err := commands.Dispatch[C, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
