package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/hash"
	"github.com/adityaverma/campus-connect/internal/logging"
	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
	"github.com/adityaverma/campus-connect/internal/mykafka"
	"github.com/adityaverma/campus-connect/internal/service/search"
	"github.com/adityaverma/campus-connect/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	if req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "username or email is already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check existing user")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: pwHash,
		Role:         models.RoleStudent,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "the user couldn't be created")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	if h.ES != nil {
		if err := search.IndexUser(c.Request().Context(), h.ES, h.Index, user.Summary()); err != nil {
			logging.FromContext(c.Request().Context()).Error("index user failed", "userID", user.ID, "error", err)
		}
	}

	return respond(c, http.StatusCreated, user, "user registered successfully")
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password is required")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user doesn't exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "the password is incorrect")
	}

	pair, err := h.Tokens.IssuePair(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create tokens")
	}

	c.SetCookie(CreateCookie("accessToken", pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", pair.RefreshExp))

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	user.PasswordHash = ""
	user.RefreshToken = nil

	return respond(c, http.StatusOK, echo.Map{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.Bind(&req)
		raw = req.RefreshToken
	}
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	_, pair, err := h.Tokens.Rotate(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenInvalid) {
			return echo.NewHTTPError(http.StatusForbidden, "token invalid or expired")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not rotate tokens")
	}

	c.SetCookie(CreateCookie("accessToken", pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(CreateCookie("refreshToken", pair.RefreshToken, "/", pair.RefreshExp))

	return respond(c, http.StatusOK, echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	user := middleware.CurrentUser(c)

	if err := h.Tokens.Revoke(user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not revoke session")
	}

	clearCookie(c, "accessToken")
	clearCookie(c, "refreshToken")

	return respond(c, http.StatusOK, echo.Map{}, "user logged out")
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "old and new password are required")
	}

	current := middleware.CurrentUser(c)

	var user models.User
	if err := h.DB.First(&user, current.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if !hash.CheckPassword(user.PasswordHash, req.OldPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "the password is incorrect")
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	if err := h.DB.Model(&user).Update("password_hash", pwHash).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update password")
	}

	return respond(c, http.StatusOK, echo.Map{}, "password changed successfully")
}
