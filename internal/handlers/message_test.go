package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityaverma/campus-connect/internal/models"
)

func sendMessage(t *testing.T, env *testEnv, h *MessageHandler, sender *models.User, receiverID uint, body string) error {
	c, _ := env.request(t, http.MethodPost, "/messages", map[string]any{
		"receiverId": receiverID, "message": body,
	})
	asUser(c, sender)
	return h.SendMessage(c)
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	h := &MessageHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)

	requireHTTPError(t, sendMessage(t, env, h, &alice, 9999, "hi"), http.StatusNotFound)
	requireHTTPError(t, sendMessage(t, env, h, &alice, alice.ID, "hi me"), http.StatusBadRequest)
	requireHTTPError(t, sendMessage(t, env, h, &alice, bob.ID, ""), http.StatusBadRequest)

	require.NoError(t, sendMessage(t, env, h, &alice, bob.ID, "hi bob"))
	require.EqualValues(t, 1, countRows(t, env.DB, &models.Message{}))
}

func TestGetConversation(t *testing.T) {
	env := newTestEnv(t)
	h := &MessageHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)
	carol := env.createUser(t, "carol", "c@x.com", "secret123", models.RoleStudent)

	require.NoError(t, sendMessage(t, env, h, &alice, bob.ID, "first"))
	require.NoError(t, sendMessage(t, env, h, &bob, alice.ID, "second"))
	require.NoError(t, sendMessage(t, env, h, &alice, carol.ID, "other thread"))

	c, rec := env.request(t, http.MethodGet, "/messages/conversation/:userId", nil)
	c.SetParamNames("userId")
	c.SetParamValues(fmt.Sprint(bob.ID))
	asUser(c, &alice)
	require.NoError(t, h.GetConversation(c))

	resp := decodeEnvelope(t, rec)
	var messages []models.Message
	require.NoError(t, json.Unmarshal(resp.Data, &messages))
	require.Len(t, messages, 2)
	require.Equal(t, "first", messages[0].Body)
	require.Equal(t, "second", messages[1].Body)
}

func TestGetAllConversations(t *testing.T) {
	env := newTestEnv(t)
	h := &MessageHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)
	carol := env.createUser(t, "carol", "c@x.com", "secret123", models.RoleStudent)

	require.NoError(t, sendMessage(t, env, h, &alice, bob.ID, "hi bob"))
	require.NoError(t, sendMessage(t, env, h, &carol, alice.ID, "hi alice"))

	c, rec := env.request(t, http.MethodGet, "/messages/conversations", nil)
	asUser(c, &alice)
	require.NoError(t, h.GetAllConversations(c))

	resp := decodeEnvelope(t, rec)
	var conversations []struct {
		User          models.Summary `json:"user"`
		LatestMessage models.Message `json:"latestMessage"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &conversations))
	require.Len(t, conversations, 2)

	peers := map[string]bool{}
	for _, conv := range conversations {
		peers[conv.User.Username] = true
	}
	require.True(t, peers["bob"])
	require.True(t, peers["carol"])
}

func TestDeleteMessage(t *testing.T) {
	env := newTestEnv(t)
	h := &MessageHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)

	require.NoError(t, sendMessage(t, env, h, &alice, bob.ID, "delete me"))
	var message models.Message
	require.NoError(t, env.DB.First(&message).Error)

	// only the sender may delete, the receiver may not
	c, _ := env.request(t, http.MethodDelete, "/messages/:messageId", nil)
	c.SetParamNames("messageId")
	c.SetParamValues(fmt.Sprint(message.ID))
	asUser(c, &bob)
	requireHTTPError(t, h.DeleteMessage(c), http.StatusForbidden)

	c2, rec2 := env.request(t, http.MethodDelete, "/messages/:messageId", nil)
	c2.SetParamNames("messageId")
	c2.SetParamValues(fmt.Sprint(message.ID))
	asUser(c2, &alice)
	require.NoError(t, h.DeleteMessage(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.EqualValues(t, 0, countRows(t, env.DB, &models.Message{}))
}
