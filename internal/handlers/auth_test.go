package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username:  "alice",
		Password:  "password",
		FirstName: "Alice",
		LastName:  "Anderson",
		Phone:     "+14155550000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[AuthResponse](t, rec)
	username, err := app.codec.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	assert.Equal(t, "alice", resp.User.Username)
	assert.NotNil(t, resp.User.LastLoginAt, "registration counts as a login")

	var raw struct {
		User map[string]json.RawMessage `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	_, leaked := raw.User["password_hash"]
	assert.False(t, leaked, "password hash must never be serialized")
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "alice")

	rec := app.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username:  "alice",
		Password:  "other",
		FirstName: "Other",
		LastName:  "Person",
		Phone:     "+14155550001",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterMissingFields(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: "alice",
		Password: "password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "alice")

	rec := app.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "alice", Password: "password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[AuthResponse](t, rec)
	username, err := app.codec.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "alice")

	wrongPassword := app.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "alice", Password: "nope"})
	unknownUser := app.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "mallory", Password: "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String(),
		"unknown username must not be distinguishable from wrong password")
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "alice")

	before := *app.users.users["alice"].LastLoginAt

	rec := app.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "alice", Password: "password"})
	require.Equal(t, http.StatusOK, rec.Code)

	after := *app.users.users["alice"].LastLoginAt
	assert.False(t, after.Before(before))
}
