package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/adityaverma/campus-connect/internal/models"
)

func newAuthHandler(env *testEnv) *AuthHandler {
	return &AuthHandler{DB: env.DB, Tokens: env.Tokens}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	payload := map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"name":     "Alice",
		"password": "secret123",
	}

	c, rec := env.request(t, http.MethodPost, "/users/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	var created models.User
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.Equal(t, "alice", created.Username)
	require.Equal(t, models.RoleStudent, created.Role)
	require.NotEmpty(t, created.ID)
	require.NotContains(t, rec.Body.String(), "secret123")
	require.NotContains(t, rec.Body.String(), "password")

	// same username again
	c2, _ := env.request(t, http.MethodPost, "/users/register", payload)
	requireHTTPError(t, h.Register(c2), http.StatusConflict)

	// missing email
	c3, _ := env.request(t, http.MethodPost, "/users/register", map[string]string{
		"username": "bob", "name": "Bob", "password": "pw",
	})
	requireHTTPError(t, h.Register(c3), http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)
	env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)

	c, rec := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	var data struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	require.NotEmpty(t, data.RefreshToken)
	require.Equal(t, "alice", data.User["username"])
	require.NotContains(t, data.User, "password")
	require.NotContains(t, data.User, "passwordHash")

	// refresh token persisted on the user row
	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "a@x.com").First(&user).Error)
	require.NotNil(t, user.RefreshToken)
	require.Equal(t, data.RefreshToken, *user.RefreshToken)

	// token cookies set
	cookies := rec.Result().Cookies()
	names := map[string]bool{}
	for _, ck := range cookies {
		names[ck.Name] = true
		require.True(t, ck.HttpOnly)
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	cBad, _ := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	requireHTTPError(t, h.Login(cBad), http.StatusUnauthorized)

	cMissing, _ := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": "nobody@x.com", "password": "secret123",
	})
	requireHTTPError(t, h.Login(cMissing), http.StatusNotFound)
}

func loginFor(t *testing.T, env *testEnv, h *AuthHandler, email, password string) (string, string) {
	c, rec := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": email, "password": password,
	})
	require.NoError(t, h.Login(c))

	resp := decodeEnvelope(t, rec)
	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.AccessToken, data.RefreshToken
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)
	env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)

	_, refresh := loginFor(t, env, h, "a@x.com", "secret123")

	// first use succeeds and issues a new pair
	c, rec := env.request(t, http.MethodPost, "/users/refresh-token", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	require.NoError(t, h.RefreshToken(c))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeEnvelope(t, rec)
	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.RefreshToken)
	require.NotEqual(t, refresh, data.RefreshToken)

	// replaying the superseded token fails
	c2, _ := env.request(t, http.MethodPost, "/users/refresh-token", nil)
	c2.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	requireHTTPError(t, h.RefreshToken(c2), http.StatusForbidden)

	// the rotated token still works, via body this time
	c3, rec3 := env.request(t, http.MethodPost, "/users/refresh-token", map[string]string{
		"refreshToken": data.RefreshToken,
	})
	require.NoError(t, h.RefreshToken(c3))
	require.Equal(t, http.StatusOK, rec3.Code)
}

func TestRefreshTokenMissingOrGarbage(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	c, _ := env.request(t, http.MethodPost, "/users/refresh-token", nil)
	requireHTTPError(t, h.RefreshToken(c), http.StatusUnauthorized)

	c2, _ := env.request(t, http.MethodPost, "/users/refresh-token", map[string]string{
		"refreshToken": "not-a-jwt",
	})
	err := h.RefreshToken(c2)
	requireHTTPError(t, err, http.StatusForbidden)
	require.Contains(t, err.(*echo.HTTPError).Message, "token invalid or expired")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)
	user := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)

	_, refresh := loginFor(t, env, h, "a@x.com", "secret123")

	c, rec := env.request(t, http.MethodPost, "/users/logout", nil)
	asUser(c, &user)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	require.Nil(t, stored.RefreshToken)

	// the previously valid refresh token is dead now
	c2, _ := env.request(t, http.MethodPost, "/users/refresh-token", nil)
	c2.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	requireHTTPError(t, h.RefreshToken(c2), http.StatusForbidden)

	// logout is idempotent
	c3, rec3 := env.request(t, http.MethodPost, "/users/logout", nil)
	asUser(c3, &user)
	require.NoError(t, h.Logout(c3))
	require.Equal(t, http.StatusOK, rec3.Code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)
	user := env.createUser(t, "alice", "a@x.com", "secret123", models.RoleStudent)

	c, _ := env.request(t, http.MethodPost, "/users/change-password", map[string]string{
		"oldPassword": "wrong", "newPassword": "newpass456",
	})
	asUser(c, &user)
	requireHTTPError(t, h.ChangePassword(c), http.StatusUnauthorized)

	c2, rec2 := env.request(t, http.MethodPost, "/users/change-password", map[string]string{
		"oldPassword": "secret123", "newPassword": "newpass456",
	})
	asUser(c2, &user)
	require.NoError(t, h.ChangePassword(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	// old password no longer works, new one does
	cOld, _ := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": "a@x.com", "password": "secret123",
	})
	requireHTTPError(t, h.Login(cOld), http.StatusUnauthorized)

	cNew, recNew := env.request(t, http.MethodPost, "/users/login", map[string]string{
		"email": "a@x.com", "password": "newpass456",
	})
	require.NoError(t, h.Login(cNew))
	require.Equal(t, http.StatusOK, recNew.Code)
}
