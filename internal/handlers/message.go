package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/adityaverma/campus-connect/internal/middleware"
	"github.com/adityaverma/campus-connect/internal/models"
	"github.com/adityaverma/campus-connect/internal/mykafka"
)

type MessageHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req struct {
		ReceiverID uint   `json:"receiverId"`
		Message    string `json:"message"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ReceiverID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "receiver id is required")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message content is required")
	}

	var receiver models.User
	if err := h.DB.Select("id").First(&receiver, req.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "receiver not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load receiver")
	}

	user := middleware.CurrentUser(c)
	if req.ReceiverID == user.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot send a message to yourself")
	}

	message := models.Message{
		SenderID:   user.ID,
		ReceiverID: req.ReceiverID,
		Body:       req.Message,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot send message")
	}

	publish(c, h.Producer, "message_events", fmt.Sprint(user.ID), map[string]any{
		"type":       "message_sent",
		"messageID":  message.ID,
		"senderID":   user.ID,
		"receiverID": req.ReceiverID,
	})

	return respond(c, http.StatusCreated, message, "message sent successfully")
}

func (h *MessageHandler) GetConversation(c echo.Context) error {
	peerID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var peer models.User
	if err := h.DB.Select("id").First(&peer, peerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}

	user := middleware.CurrentUser(c)

	var messages []models.Message
	if err := h.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, peerID, peerID, user.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load conversation")
	}

	return respond(c, http.StatusOK, messages, "conversation fetched successfully")
}

type conversationView struct {
	User          models.Summary `json:"user"`
	LatestMessage models.Message `json:"latestMessage"`
}

func (h *MessageHandler) GetAllConversations(c echo.Context) error {
	user := middleware.CurrentUser(c)

	// Every message involving the user, newest first; the first occurrence
	// of a peer carries that conversation's latest message.
	var messages []models.Message
	if err := h.DB.
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load conversations")
	}

	latestByPeer := map[uint]models.Message{}
	order := []uint{}
	for _, m := range messages {
		peer := m.SenderID
		if peer == user.ID {
			peer = m.ReceiverID
		}
		if _, ok := latestByPeer[peer]; !ok {
			latestByPeer[peer] = m
			order = append(order, peer)
		}
	}

	summaries, err := userSummaries(h.DB, order)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load conversations")
	}

	conversations := make([]conversationView, 0, len(order))
	for _, peer := range order {
		conversations = append(conversations, conversationView{
			User:          summaries[peer],
			LatestMessage: latestByPeer[peer],
		})
	}

	return respond(c, http.StatusOK, conversations, "all conversations fetched successfully")
}

func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	id, err := paramID(c, "messageId")
	if err != nil {
		return err
	}

	var message models.Message
	if err := h.DB.First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load message")
	}

	user := middleware.CurrentUser(c)
	if message.SenderID != user.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot delete this message")
	}

	if err := h.DB.Delete(&models.Message{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete message")
	}

	return respond(c, http.StatusOK, echo.Map{}, "message deleted successfully")
}
