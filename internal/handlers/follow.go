package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
)

type FollowHandler struct {
	DB *gorm.DB
}

func (h *FollowHandler) targetUser(c echo.Context) (uint, error) {
	id, err := paramID(c, "userId")
	if err != nil {
		return 0, err
	}
	var user models.User
	if err := h.DB.Select("id").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}
	return id, nil
}

func (h *FollowHandler) FollowUser(c echo.Context) error {
	targetID, err := h.targetUser(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if targetID == user.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot follow yourself")
	}

	var existing models.Follow
	err = h.DB.Where("follower_id = ? AND following_id = ?", user.ID, targetID).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "you are already following this user")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check follow status")
	}

	follow := models.Follow{FollowerID: user.ID, FollowingID: targetID}
	if err := h.DB.Create(&follow).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot follow user")
	}

	return respond(c, http.StatusOK, follow, "user followed successfully")
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	targetID, err := h.targetUser(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)

	var follow models.Follow
	err = h.DB.Where("follower_id = ? AND following_id = ?", user.ID, targetID).First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, "you are not following this user")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check follow status")
	}

	if err := h.DB.Delete(&follow).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot unfollow user")
	}

	return respond(c, http.StatusOK, echo.Map{}, "user unfollowed successfully")
}

// subjectID resolves the optional :userId path param, defaulting to the
// current user.
func subjectID(c echo.Context) (uint, error) {
	if c.Param("userId") == "" {
		return middleware.CurrentUser(c).ID, nil
	}
	return paramID(c, "userId")
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var follows []models.Follow
	if err := h.DB.Where("follower_id = ?", userID).Order("created_at DESC").Find(&follows).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load following")
	}

	ids := make([]uint, len(follows))
	for i := range follows {
		ids[i] = follows[i].FollowingID
	}
	summaries, err := userSummaries(h.DB, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load following")
	}

	list := make([]models.Summary, 0, len(follows))
	for _, f := range follows {
		if s, ok := summaries[f.FollowingID]; ok {
			list = append(list, s)
		}
	}

	return respond(c, http.StatusOK, list, "following list fetched successfully")
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var follows []models.Follow
	if err := h.DB.Where("following_id = ?", userID).Order("created_at DESC").Find(&follows).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load followers")
	}

	ids := make([]uint, len(follows))
	for i := range follows {
		ids[i] = follows[i].FollowerID
	}
	summaries, err := userSummaries(h.DB, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load followers")
	}

	list := make([]models.Summary, 0, len(follows))
	for _, f := range follows {
		if s, ok := summaries[f.FollowerID]; ok {
			list = append(list, s)
		}
	}

	return respond(c, http.StatusOK, list, "followers list fetched successfully")
}

func (h *FollowHandler) CheckFollowStatus(c echo.Context) error {
	targetID, err := paramID(c, "targetUserId")
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)

	var count int64
	if err := h.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", user.ID, targetID).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check follow status")
	}

	return respond(c, http.StatusOK, echo.Map{"isFollowing": count > 0}, "follow status checked successfully")
}
