package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
)

type CommentHandler struct {
	DB *gorm.DB
}

func (h *CommentHandler) loadComment(c echo.Context) (*models.Comment, error) {
	id, err := paramID(c, "commentId")
	if err != nil {
		return nil, err
	}
	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "comment not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load comment")
	}
	return &comment, nil
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req struct {
		PostID  uint   `json:"postId"`
		Content string `json:"content"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment content is required")
	}
	if req.PostID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "post id is required")
	}

	var post models.Post
	if err := h.DB.First(&post, req.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}

	user := middleware.CurrentUser(c)
	comment := models.Comment{
		PostID:   req.PostID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create comment")
	}

	return respond(c, http.StatusCreated, comment, "comment created successfully")
}

func (h *CommentHandler) GetPostComments(c echo.Context) error {
	postID, err := paramID(c, "postId")
	if err != nil {
		return err
	}

	var comments []models.Comment
	if err := h.DB.Where("post_id = ?", postID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load comments")
	}

	authorIDs := make([]uint, len(comments))
	for i := range comments {
		authorIDs[i] = comments[i].AuthorID
	}
	authors, err := userSummaries(h.DB, authorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load comments")
	}

	views := make([]commentView, len(comments))
	for i, cm := range comments {
		views[i] = commentView{Comment: cm, Author: authors[cm.AuthorID]}
	}

	return respond(c, http.StatusOK, views, "comments fetched successfully")
}

func (h *CommentHandler) UpdateComment(c echo.Context) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "comment content is required")
	}

	comment, err := h.loadComment(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if comment.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you are not authorized to update this comment")
	}

	if err := h.DB.Model(comment).Update("content", req.Content).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update comment")
	}

	return respond(c, http.StatusOK, comment, "comment updated successfully")
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	comment, err := h.loadComment(c)
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if comment.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you are not authorized to delete this comment")
	}

	if err := h.DB.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete comment")
	}

	return respond(c, http.StatusOK, echo.Map{}, "comment deleted successfully")
}
