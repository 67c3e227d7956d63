package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
	"github.com/adityaverma/campus-connect/internal/mykafka"
	"github.com/adityaverma/campus-connect/internal/util"
)

type PostHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type postView struct {
	models.Post
	Author    models.Summary    `json:"author"`
	Resources []models.Resource `json:"resources"`
	LikeCount int64             `json:"likeCount"`
}

type commentView struct {
	models.Comment
	Author models.Summary `json:"author"`
}

func (h *PostHandler) loadPost(c echo.Context, idParam string) (*models.Post, error) {
	id, err := paramID(c, idParam)
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := h.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}
	return &post, nil
}

// assemble resolves authors, resources and like counts for a page of posts
// with one query per relation instead of one per post.
func (h *PostHandler) assemble(posts []models.Post) ([]postView, error) {
	ids := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
		authorIDs = append(authorIDs, posts[i].AuthorID)
	}

	authors, err := userSummaries(h.DB, authorIDs)
	if err != nil {
		return nil, err
	}

	resourcesByPost := map[uint][]models.Resource{}
	likesByPost := map[uint]int64{}
	if len(ids) > 0 {
		var resources []models.Resource
		if err := h.DB.Where("post_id IN ?", ids).Find(&resources).Error; err != nil {
			return nil, err
		}
		for _, r := range resources {
			resourcesByPost[r.PostID] = append(resourcesByPost[r.PostID], r)
		}

		var counts []struct {
			PostID uint
			N      int64
		}
		if err := h.DB.Model(&models.Like{}).
			Select("post_id, count(*) as n").
			Where("post_id IN ?", ids).
			Group("post_id").
			Scan(&counts).Error; err != nil {
			return nil, err
		}
		for _, cnt := range counts {
			likesByPost[cnt.PostID] = cnt.N
		}
	}

	views := make([]postView, len(posts))
	for i, p := range posts {
		res := resourcesByPost[p.ID]
		if res == nil {
			res = []models.Resource{}
		}
		views[i] = postView{
			Post:      p,
			Author:    authors[p.AuthorID],
			Resources: res,
			LikeCount: likesByPost[p.ID],
		}
	}
	return views, nil
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	var req struct {
		Content   string   `json:"content"`
		Hashtags  []string `json:"hashtags"`
		Mentions  []string `json:"mentions"`
		Resources []struct {
			Type  string `json:"type"`
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"resources"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	user := middleware.CurrentUser(c)

	hashtags := req.Hashtags
	if len(hashtags) == 0 {
		hashtags = util.ExtractHashtags(req.Content)
	}

	mentionNames := req.Mentions
	if len(mentionNames) == 0 {
		mentionNames = util.ExtractMentions(req.Content)
	}
	var mentionIDs []uint
	if len(mentionNames) > 0 {
		var mentioned []models.User
		if err := h.DB.Select("id").Where("username IN ?", mentionNames).Find(&mentioned).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve mentions")
		}
		for _, m := range mentioned {
			mentionIDs = append(mentionIDs, m.ID)
		}
	}

	post := models.Post{
		AuthorID: user.ID,
		Content:  req.Content,
		Hashtags: datatypes.NewJSONSlice(hashtags),
		Mentions: datatypes.NewJSONSlice(mentionIDs),
	}
	if err := h.DB.Create(&post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create post")
	}

	// Resource creation is best-effort: a failure leaves the post without
	// the remaining resources rather than rolling it back.
	for _, r := range req.Resources {
		if r.Type != models.ResourceImage && r.Type != models.ResourcePDF {
			continue
		}
		resource := models.Resource{
			PostID: post.ID,
			Type:   r.Type,
			URL:    r.URL,
			Title:  r.Title,
		}
		if err := h.DB.Create(&resource).Error; err != nil {
			c.Logger().Errorf("resource create failed for post %d: %v", post.ID, err)
		}
	}

	publish(c, h.Producer, "post_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "post_created",
		"postID": post.ID,
		"userID": user.ID,
	})

	views, err := h.assemble([]models.Post{post})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}

	return respond(c, http.StatusCreated, views[0], "post created successfully")
}

func (h *PostHandler) GetAllPosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Post{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count posts")
	}

	var posts []models.Post
	if err := h.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load posts")
	}

	views, err := h.assemble(posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load posts")
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	return respond(c, http.StatusOK, echo.Map{
		"posts": views,
		"pagination": echo.Map{
			"page":       page,
			"limit":      limit,
			"totalPosts": total,
			"totalPages": totalPages,
			"hasMore":    int64(page) < totalPages,
		},
	}, "posts fetched successfully")
}

func (h *PostHandler) GetPostByID(c echo.Context) error {
	post, err := h.loadPost(c, "postId")
	if err != nil {
		return err
	}

	views, err := h.assemble([]models.Post{*post})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load post")
	}

	var comments []models.Comment
	if err := h.DB.Where("post_id = ?", post.ID).Order("created_at DESC").Find(&comments).Error; err != nil {
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
	commentViews := make([]commentView, len(comments))
	for i, cm := range comments {
		commentViews[i] = commentView{Comment: cm, Author: authors[cm.AuthorID]}
	}

	return respond(c, http.StatusOK, echo.Map{
		"post":     views[0],
		"comments": commentViews,
	}, "post fetched successfully")
}

func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var posts []models.Post
	if err := h.DB.Where("author_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load posts")
	}

	views, err := h.assemble(posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load posts")
	}

	return respond(c, http.StatusOK, views, "user posts fetched successfully")
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	post, err := h.loadPost(c, "postId")
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if post.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you are not authorized to update this post")
	}

	var req struct {
		Content  string   `json:"content"`
		Hashtags []string `json:"hashtags"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Hashtags != nil {
		post.Hashtags = datatypes.NewJSONSlice(req.Hashtags)
	}

	if err := h.DB.Save(post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update post")
	}

	return respond(c, http.StatusOK, post, "post updated successfully")
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	post, err := h.loadPost(c, "postId")
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	if post.AuthorID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you are not authorized to delete this post")
	}

	// Best-effort cascade, no cross-table transaction.
	if err := h.DB.Where("post_id = ?", post.ID).Delete(&models.Resource{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete resources")
	}
	if err := h.DB.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete comments")
	}
	if err := h.DB.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete likes")
	}
	if err := h.DB.Delete(&models.Post{}, post.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete post")
	}

	publish(c, h.Producer, "post_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "post_deleted",
		"postID": post.ID,
		"userID": user.ID,
	})

	return respond(c, http.StatusOK, echo.Map{}, "post deleted successfully")
}

func (h *PostHandler) LikeUnlikePost(c echo.Context) error {
	post, err := h.loadPost(c, "postId")
	if err != nil {
		return err
	}

	user := middleware.CurrentUser(c)

	var like models.Like
	err = h.DB.Where("post_id = ? AND user_id = ?", post.ID, user.ID).First(&like).Error
	liked := false
	message := ""
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := h.DB.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot like post")
		}
		liked = true
		message = "post liked successfully"
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load like")
	default:
		if err := h.DB.Delete(&like).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot unlike post")
		}
		message = "post unliked successfully"
	}

	var count int64
	if err := h.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot count likes")
	}

	return respond(c, http.StatusOK, echo.Map{
		"postId":    post.ID,
		"liked":     liked,
		"likeCount": count,
	}, message)
}
