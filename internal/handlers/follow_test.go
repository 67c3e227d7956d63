package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityaverma/campus-connect/internal/models"
)

func followReq(t *testing.T, env *testEnv, h *FollowHandler, actor *models.User, targetID uint) error {
	c, _ := env.request(t, http.MethodPost, "/follows/:userId", nil)
	c.SetParamNames("userId")
	c.SetParamValues(fmt.Sprint(targetID))
	asUser(c, actor)
	return h.FollowUser(c)
}

func TestFollowUser(t *testing.T) {
	env := newTestEnv(t)
	h := &FollowHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)

	// missing target
	err := followReq(t, env, h, &alice, 9999)
	requireHTTPError(t, err, http.StatusNotFound)

	// self-follow
	err = followReq(t, env, h, &alice, alice.ID)
	requireHTTPError(t, err, http.StatusBadRequest)

	// success
	err = followReq(t, env, h, &alice, bob.ID)
	require.NoError(t, err)

	// duplicate
	err = followReq(t, env, h, &alice, bob.ID)
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestUnfollowUser(t *testing.T) {
	env := newTestEnv(t)
	h := &FollowHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)

	unfollow := func(actor *models.User, targetID uint) error {
		c, _ := env.request(t, http.MethodDelete, "/follows/:userId", nil)
		c.SetParamNames("userId")
		c.SetParamValues(fmt.Sprint(targetID))
		asUser(c, actor)
		return h.UnfollowUser(c)
	}

	requireHTTPError(t, unfollow(&alice, bob.ID), http.StatusBadRequest)

	err := followReq(t, env, h, &alice, bob.ID)
	require.NoError(t, err)
	require.NoError(t, unfollow(&alice, bob.ID))
	require.EqualValues(t, 0, countRows(t, env.DB, &models.Follow{}))
}

func TestFollowingAndFollowers(t *testing.T) {
	env := newTestEnv(t)
	h := &FollowHandler{DB: env.DB}
	alice := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)
	bob := env.createUser(t, "bob", "b@x.com", "secret123", models.RoleStudent)
	carol := env.createUser(t, "carol", "c@x.com", "secret123", models.RoleStudent)

	err := followReq(t, env, h, &alice, bob.ID)
	require.NoError(t, err)
	err = followReq(t, env, h, &carol, bob.ID)
	require.NoError(t, err)

	// alice's following list
	c, rec := env.request(t, http.MethodGet, "/follows/following", nil)
	asUser(c, &alice)
	require.NoError(t, h.GetFollowing(c))
	resp := decodeEnvelope(t, rec)
	var list []models.Summary
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	require.Equal(t, "bob", list[0].Username)

	// bob's followers, via explicit path param
	c2, rec2 := env.request(t, http.MethodGet, "/follows/followers/:userId", nil)
	c2.SetParamNames("userId")
	c2.SetParamValues(fmt.Sprint(bob.ID))
	asUser(c2, &alice)
	require.NoError(t, h.GetFollowers(c2))
	resp2 := decodeEnvelope(t, rec2)
	require.NoError(t, json.Unmarshal(resp2.Data, &list))
	require.Len(t, list, 2)

	// status check
	c3, rec3 := env.request(t, http.MethodGet, "/follows/status/:targetUserId", nil)
	c3.SetParamNames("targetUserId")
	c3.SetParamValues(fmt.Sprint(bob.ID))
	asUser(c3, &alice)
	require.NoError(t, h.CheckFollowStatus(c3))
	resp3 := decodeEnvelope(t, rec3)
	var status struct {
		IsFollowing bool `json:"isFollowing"`
	}
	require.NoError(t, json.Unmarshal(resp3.Data, &status))
	require.True(t, status.IsFollowing)
}
