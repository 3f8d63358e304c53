package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/favorites"
	"rentdesk/internal/app/queries"
)

type FavoriteHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type toggleRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

func (h *FavoriteHandler) Toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := favorites.ToggleFavoriteCommand{Actor: currentActor(c), ListingID: req.ListingID, Action: req.Action}
	result, err := commands.Dispatch[favorites.ToggleFavoriteCommand, *dto.FavoriteToggleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FavoriteHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	q := favorites.ListFavoritesQuery{Actor: currentActor(c), Limit: limit, Offset: offset}
	list, err := queries.Ask[favorites.ListFavoritesQuery, dto.FavoriteList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
