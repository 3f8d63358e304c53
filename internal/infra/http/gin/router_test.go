package ginserver_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/apptest"
	"rentdesk/internal/app/dto"
	ginserver "rentdesk/internal/infra/http/gin"
	"rentdesk/internal/infra/obs"
	"rentdesk/internal/infra/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T, deps ...obs.Dependency) (*client, *apptest.Harness) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := apptest.New(t)
	router := ginserver.NewRouter(obs.Middleware{Logger: h.Logger}, obs.HealthHandlers{Dependencies: deps}, ginserver.Handlers{
		Auth:           &ginserver.AuthHandler{Service: h.Auth, Validator: validation.New(), Logger: h.Logger},
		Listings:       &ginserver.ListingHandler{Commands: h.Commands, Queries: h.Queries, Logger: h.Logger},
		Reservations:   &ginserver.ReservationHandler{Commands: h.Commands, Queries: h.Queries, Logger: h.Logger},
		Favorites:      &ginserver.FavoriteHandler{Commands: h.Commands, Queries: h.Queries, Logger: h.Logger},
		Dashboard:      &ginserver.DashboardHandler{Queries: h.Queries, Logger: h.Logger},
		AuthMiddleware: ginserver.AuthMiddleware{Resolver: h.Auth, Logger: h.Logger}.Handle,
	})
	return &client{t: t, router: router}, h
}

func (c *client) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(c.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (c *client) register(username, role string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
		"role":     role,
	})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.SessionView](c.t, rec).Token
}

func TestReservationFlowOverHTTP(t *testing.T) {
	c, _ := newClient(t)
	owner := c.register("olivia", "OWNER")
	tenant := c.register("tom", "TENANT")

	rec := c.do(http.MethodPost, "/api/v1/listings", owner, gin.H{
		"title":        "Canal loft",
		"street":       "12 Rue Centrale",
		"city":         "Paris",
		"monthly_rent": 300000,
		"room_count":   2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listing := decode[dto.ListingDetail](t, rec)
	assert.NotEmpty(t, listing.Slug)

	booking := gin.H{
		"listing_id": listing.ID,
		"start_date": apptest.Day(10).Format(dto.DateLayout),
		"end_date":   apptest.Day(20).Format(dto.DateLayout),
	}
	rec = c.do(http.MethodPost, "/api/v1/reservations", "", booking)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/reservations", tenant, gin.H{"listing_id": listing.ID, "start_date": "10/04/2030", "end_date": "2030-04-20"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[gin.H](t, rec)["kind"])

	rec = c.do(http.MethodPost, "/api/v1/reservations", tenant, booking, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[dto.ReservationView](t, rec)
	assert.Equal(t, "RESERVED", created.Status)

	rec = c.do(http.MethodPost, "/api/v1/reservations", tenant, booking, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, created.ID, decode[dto.ReservationView](t, rec).ID)

	rec = c.do(http.MethodPost, "/api/v1/reservations/"+created.ID+"/confirm", tenant, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/reservations/"+created.ID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", decode[dto.ReservationView](t, rec).Status)

	rec = c.do(http.MethodPatch, "/api/v1/reservations/"+created.ID+"/status", owner, gin.H{"status": "reserved"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode[gin.H](t, rec)["kind"])

	rec = c.do(http.MethodGet, "/api/v1/listings/"+listing.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.ListingDetail](t, rec).Available)

	rec = c.do(http.MethodGet, "/api/v1/reservations/"+created.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationAndLoginErrors(t *testing.T) {
	c, _ := newClient(t)
	c.register("tom", "TENANT")

	rec := c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "tom", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "tom@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[dto.SessionView](t, rec).Token

	rec = c.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"tom"`)

	rec = c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "eve", "email": "not-an-email", "password": "correct-horse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/listings/unknown/availability?start_date=2030-01-01&end_date=2030-01-02", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	c, _ := newClient(t, obs.Dependency{Name: "mongo", Check: func(context.Context) error { return errors.New("down") }})

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/livez", "", nil).Code)
	rec := c.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "mongo")
	assert.NotEmpty(t, rec.Header().Get(obs.RequestIDHeader))
}
