package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/logging"
	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
	"github.com/adityaverma/campus-connect/internal/mykafka"
	"github.com/adityaverma/campus-connect/internal/service/search"
	"github.com/adityaverma/campus-connect/internal/util"
)

type UserHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *UserHandler) Profile(c echo.Context) error {
	return respond(c, http.StatusOK, middleware.CurrentUser(c), "current user fetched successfully")
}

func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Omit("password_hash", "refresh_token").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	return respond(c, http.StatusOK, user, "user fetched successfully")
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" && req.Email == "" && req.Bio == "" && req.ProfileImage == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one field should be provided")
	}

	user := middleware.CurrentUser(c)

	if req.Email != "" && req.Email != user.Email {
		var other models.User
		err := h.DB.Where("email = ? AND id <> ?", req.Email, user.ID).First(&other).Error
		if err == nil {
			return echo.NewHTTPError(http.StatusConflict, "email is already in use by another account")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot check email")
		}
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.ProfileImage != "" {
		updates["profile_image"] = req.ProfileImage
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}

	var updated models.User
	if err := h.DB.Omit("password_hash", "refresh_token").First(&updated, user.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	if h.ES != nil {
		if err := search.IndexUser(c.Request().Context(), h.ES, h.Index, updated.Summary()); err != nil {
			logging.FromContext(c.Request().Context()).Error("index user failed", "userID", updated.ID, "error", err)
		}
	}

	return respond(c, http.StatusOK, updated, "user updated successfully")
}

func (h *UserHandler) ChangeUserRole(c echo.Context) error {
	actor := middleware.CurrentUser(c)

	id, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "role is required")
	}
	if !models.ValidRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: Student, Admin, Mentor")
	}

	// Self-target is rejected before the admin check even applies.
	if id == actor.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot change your own role")
	}

	if actor.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "only administrators can change user roles")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	if err := h.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update role")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_role_changed",
		"userID": user.ID,
		"role":   req.Role,
		"by":     actor.ID,
	})

	return respond(c, http.StatusOK, echo.Map{
		"userId":   user.ID,
		"username": user.Username,
		"role":     req.Role,
	}, "user role updated successfully")
}

func (h *UserHandler) GetAllUsers(c echo.Context) error {
	actor := middleware.CurrentUser(c)
	if actor.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "only administrators can access all users")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count users")
	}

	var users []models.User
	if err := h.DB.Omit("password_hash", "refresh_token").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}

	return respond(c, http.StatusOK, echo.Map{
		"users": users,
		"pagination": echo.Map{
			"totalUsers":  total,
			"currentPage": page,
			"totalPages":  (total + int64(limit) - 1) / int64(limit),
			"pageSize":    limit,
		},
	}, "users fetched successfully")
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		q = c.QueryParam("query")
	}
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "search query is required")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search is unavailable")
	}

	users, err := search.Users(c.Request().Context(), h.ES, h.Index, q, 0, 10)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return respond(c, http.StatusOK, users, "users fetched successfully")
}
