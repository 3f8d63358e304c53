package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/services/auth"
)

type AuthHandler struct {
	Service   *auth.Service
	Validator middleware.Validator
	Logger    *slog.Logger
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Role        string `json:"role"`
	Siret       string `json:"siret"`
	CompanyName string `json:"company_name"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type ownerRequest struct {
	Siret             *string  `json:"siret"`
	CompanyName       *string  `json:"company_name"`
	CommissionPercent *float64 `json:"commission_percent"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	params := auth.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Address:     req.Address,
		Role:        req.Role,
		Siret:       req.Siret,
		CompanyName: req.CompanyName,
	}
	if !h.validate(c, params) {
		return
	}
	result, err := h.Service.Register(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, sessionView(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}
	result, err := h.Service.Login(c.Request.Context(), auth.LoginParams{Login: login, Password: req.Password})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error(), Kind: "unauthenticated"})
			return
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(result))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor := currentActor(c)
	if !actor.Authenticated() {
		respondError(c, h.Logger, policies.ErrUnauthenticated)
		return
	}
	u, err := h.Service.User(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUser(u, actor.Account))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	update := auth.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	if !h.validate(c, update) {
		return
	}
	actor := currentActor(c)
	u, err := h.Service.UpdateProfile(c.Request.Context(), actor, update)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapUser(u, actor.Account))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.Service.ChangePassword(c.Request.Context(), currentActor(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) UpdateOwner(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	update := auth.OwnerUpdate{
		OwnerID:           c.Param("id"),
		Siret:             req.Siret,
		CompanyName:       req.CompanyName,
		CommissionPercent: req.CommissionPercent,
	}
	if !h.validate(c, update) {
		return
	}
	owner, err := h.Service.UpdateOwner(c.Request.Context(), currentActor(c), update)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapOwnerProfile(owner))
}

func (h *AuthHandler) validate(c *gin.Context, params any) bool {
	if h.Validator == nil {
		return true
	}
	if err := h.Validator.Validate(c.Request.Context(), params); err != nil {
		respondError(c, h.Logger, err)
		return false
	}
	return true
}

func sessionView(result *auth.AuthResult) dto.SessionView {
	return dto.SessionView{Token: result.Token, User: dto.MapUser(result.User, result.Actor.Account)}
}
