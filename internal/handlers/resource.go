package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
)

type ResourceHandler struct {
	DB *gorm.DB
}

// loadOwned loads a resource and authorizes the current user through the
// parent post: resources have no owner of their own.
func (h *ResourceHandler) loadOwned(c echo.Context) (*models.Resource, error) {
	id, err := paramID(c, "resourceId")
	if err != nil {
		return nil, err
	}

	var resource models.Resource
	if err := h.DB.First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load resource")
	}

	var post models.Post
	if err := h.DB.First(&post, resource.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "associated post not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}

	user := middleware.CurrentUser(c)
	if post.AuthorID != user.ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "only the post owner can modify resources")
	}

	return &resource, nil
}

func (h *ResourceHandler) AddResource(c echo.Context) error {
	var req struct {
		PostID uint   `json:"postId"`
		Type   string `json:"type"`
		URL    string `json:"url"`
		Title  string `json:"title"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PostID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "post id is required")
	}
	if req.Type != models.ResourceImage && req.Type != models.ResourcePDF {
		return echo.NewHTTPError(http.StatusBadRequest, "valid resource type is required (image or pdf)")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	var post models.Post
	if err := h.DB.First(&post, req.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}

	user := middleware.CurrentUser(c)
	if post.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "only the post owner can add resources")
	}

	resource := models.Resource{
		PostID: req.PostID,
		Type:   req.Type,
		URL:    req.URL,
		Title:  req.Title,
	}
	if err := h.DB.Create(&resource).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create resource")
	}

	return respond(c, http.StatusCreated, resource, "resource added successfully")
}

func (h *ResourceHandler) GetPostResources(c echo.Context) error {
	postID, err := paramID(c, "postId")
	if err != nil {
		return err
	}

	var resources []models.Resource
	if err := h.DB.Where("post_id = ?", postID).Find(&resources).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load resources")
	}

	return respond(c, http.StatusOK, resources, "resources fetched successfully")
}

func (h *ResourceHandler) DeleteResource(c echo.Context) error {
	resource, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.Resource{}, resource.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete resource")
	}

	return respond(c, http.StatusOK, echo.Map{}, "resource deleted successfully")
}

func (h *ResourceHandler) UpdateResourceTitle(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	resource, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	if err := h.DB.Model(resource).Update("title", req.Title).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update resource")
	}

	return respond(c, http.StatusOK, resource, "resource title updated successfully")
}
