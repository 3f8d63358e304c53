package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/listings"
	"rentdesk/internal/app/queries"
)

// maxPhotoBytes bounds a single uploaded photo.
const maxPhotoBytes = 10 << 20

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type listingRequest struct {
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Street      string `json:"street" binding:"required"`
	City        string `json:"city" binding:"required"`
	PostalCode  string `json:"postal_code"`
	MonthlyRent int64  `json:"monthly_rent"`
	Deposit     int64  `json:"deposit"`
	SurfaceArea *int   `json:"surface_area"`
	RoomCount   int    `json:"room_count"`
}

type listingPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Street      *string `json:"street"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
	MonthlyRent *int64  `json:"monthly_rent"`
	Deposit     *int64  `json:"deposit"`
	SurfaceArea *int    `json:"surface_area"`
	RoomCount   *int    `json:"room_count"`
}

func (h *ListingHandler) Create(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := listings.CreateListingCommand{
		Actor:           currentActor(c),
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		Description:     req.Description,
		Street:          req.Street,
		City:            req.City,
		PostalCode:      req.PostalCode,
		MonthlyRent:     req.MonthlyRent,
		Deposit:         req.Deposit,
		SurfaceArea:     req.SurfaceArea,
		RoomCount:       req.RoomCount,
		IdempotencyKeyV: idempotencyKey(c),
	}
	detail, err := commands.Dispatch[listings.CreateListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *ListingHandler) Update(c *gin.Context) {
	var req listingPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := listings.UpdateListingCommand{
		Actor:       currentActor(c),
		ListingID:   c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Street:      req.Street,
		City:        req.City,
		PostalCode:  req.PostalCode,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
		SurfaceArea: req.SurfaceArea,
		RoomCount:   req.RoomCount,
	}
	detail, err := commands.Dispatch[listings.UpdateListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ListingHandler) Delete(c *gin.Context) {
	cmd := listings.DeleteListingCommand{Actor: currentActor(c), ListingID: c.Param("id")}
	result, err := commands.Dispatch[listings.DeleteListingCommand, *dto.ListingDeleted](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ListingHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes+1<<20)
	header, err := c.FormFile("photo")
	if err != nil {
		respondError(c, h.Logger, listings.ErrPhotoRequired)
		return
	}
	if header.Size > maxPhotoBytes {
		badRequest(c, "photo exceeds 10 MiB")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer file.Close()

	primary, _ := strconv.ParseBool(c.PostForm("primary"))
	cmd := listings.UploadPhotoCommand{
		Actor:       currentActor(c),
		ListingID:   c.Param("id"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Caption:     c.PostForm("caption"),
		Reader:      file,
		Primary:     primary,
	}
	result, err := commands.Dispatch[listings.UploadPhotoCommand, *dto.PhotoUploadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ListingHandler) Get(c *gin.Context) {
	q := listings.GetListingQuery{IDOrSlug: c.Param("id"), Viewer: viewerKey(c)}
	detail, err := queries.Ask[listings.GetListingQuery, dto.ListingDetail](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ListingHandler) Search(c *gin.Context) {
	h.search(c, false)
}

// Mine lists the acting owner's listings, including unavailable ones.
func (h *ListingHandler) Mine(c *gin.Context) {
	h.search(c, true)
}

func (h *ListingHandler) search(c *gin.Context, mine bool) {
	limit, offset := pageParams(c)
	rooms, _ := strconv.Atoi(c.Query("room_count"))
	q := listings.SearchListingsQuery{
		Actor:     currentActor(c),
		Available: optionalBool(c.Query("available")),
		City:      c.Query("city"),
		RoomCount: rooms,
		Text:      c.Query("search"),
		Sort:      c.Query("sort"),
		Limit:     limit,
		Offset:    offset,
		Mine:      mine,
	}
	catalog, err := queries.Ask[listings.SearchListingsQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// viewerKey identifies a viewer for view deduplication: the user when signed in, the client
// address otherwise.
func viewerKey(c *gin.Context) string {
	if actor := currentActor(c); actor.Authenticated() {
		return "user:" + string(actor.UserID)
	}
	return "ip:" + c.ClientIP()
}
