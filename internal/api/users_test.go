package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRegisterLoginLogout(t *testing.T) {
	app := newTestApp(t)

	register := map[string]string{
		"email":      "cook@example.com",
		"username":   "cook",
		"first_name": "Ada",
		"last_name":  "Cook",
		"password":   "pa55word",
	}
	resp := app.do(http.MethodPost, "/api/users/", register, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[types.RegisterResponse](t, resp)
	assert.Equal(t, "cook", created.Username)
	assert.NotContains(t, resp.Body.String(), "password")

	resp = app.do(http.MethodPost, "/api/users/", register, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decode[map[string][]string](t, resp)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "username")

	resp = app.do(http.MethodPost, "/api/auth/token/login/", map[string]string{"email": "cook@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = app.do(http.MethodPost, "/api/auth/token/login/", map[string]string{"email": "cook@example.com", "password": "pa55word"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	token := decode[types.TokenResponse](t, resp).AuthToken
	require.NotEmpty(t, token)

	resp = app.do(http.MethodGet, "/api/users/me/", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decode[types.UserResponse](t, resp)
	assert.Equal(t, created.ID, me.ID)
	assert.False(t, me.IsSubscribed)

	resp = app.do(http.MethodPost, "/api/auth/token/logout/", nil, token)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = app.do(http.MethodGet, "/api/users/me/", nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(http.MethodPost, "/api/users/", map[string]string{"email": "not-an-email"}, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	fields := decode[map[string][]string](t, resp)
	assert.Equal(t, []string{"Enter a valid email address."}, fields["email"])
	for _, field := range []string{"username", "first_name", "last_name", "password"} {
		assert.Equal(t, []string{"This field is required."}, fields[field], field)
	}
}

func TestSetPassword(t *testing.T) {
	app := newTestApp(t)
	user := testhelpers.CreateUser(t, app.db, "cook")
	token := app.token(user)

	resp := app.do(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": "wrong",
		"new_password":     "next-pass",
	}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[map[string][]string](t, resp), "current_password")

	resp = app.do(http.MethodPost, "/api/users/set_password/", map[string]string{
		"current_password": testhelpers.DefaultPassword,
		"new_password":     "next-pass",
	}, token)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = app.do(http.MethodPost, "/api/auth/token/login/", map[string]string{"email": user.Email, "password": "next-pass"}, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUserProfiles(t *testing.T) {
	app := newTestApp(t)
	viewer := testhelpers.CreateUser(t, app.db, "viewer")
	for _, name := range []string{"bob", "carol", "dave"} {
		testhelpers.CreateUser(t, app.db, name)
	}

	resp := app.do(http.MethodGet, "/api/users/?limit=2", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	page := decode[types.Page[types.UserResponse]](t, resp)
	assert.EqualValues(t, 4, page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "bob", page.Results[0].Username)
	assert.NotNil(t, page.Next)

	resp = app.do(http.MethodGet, "/api/users/"+itoa(viewer.ID)+"/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = app.do(http.MethodGet, "/api/users/999/", nil, app.token(viewer))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSubscriptions(t *testing.T) {
	app := newTestApp(t)
	follower := testhelpers.CreateUser(t, app.db, "follower")
	author := testhelpers.CreateUser(t, app.db, "author")
	tag := testhelpers.CreateTag(t, app.db, "soup")
	onion := testhelpers.CreateIngredient(t, app.db, "onion", "g")
	for _, name := range []string{"one", "two", "three"} {
		testhelpers.CreateRecipe(t, app.db, author, name, []*models.Tag{tag}, onion)
	}
	token := app.token(follower)

	resp := app.do(http.MethodPost, "/api/users/"+itoa(follower.ID)+"/subscribe/", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, map[string][]string{"errors": {"You cannot subscribe to yourself."}}, decode[map[string][]string](t, resp))

	resp = app.do(http.MethodPost, "/api/users/999/subscribe/", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = app.do(http.MethodPost, "/api/users/"+itoa(author.ID)+"/subscribe/?recipes_limit=2", nil, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	entry := decode[types.SubscriptionResponse](t, resp)
	assert.True(t, entry.IsSubscribed)
	assert.Len(t, entry.Recipes, 2)
	assert.EqualValues(t, 3, entry.RecipesCount)

	resp = app.do(http.MethodPost, "/api/users/"+itoa(author.ID)+"/subscribe/", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = app.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=x", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	page := decode[types.Page[types.SubscriptionResponse]](t, resp)
	require.Len(t, page.Results, 1)
	assert.Len(t, page.Results[0].Recipes, 3)

	resp = app.do(http.MethodGet, "/api/users/"+itoa(author.ID)+"/", nil, token)
	assert.True(t, decode[types.UserResponse](t, resp).IsSubscribed)

	resp = app.do(http.MethodDelete, "/api/users/"+itoa(author.ID)+"/subscribe/", nil, token)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = app.do(http.MethodDelete, "/api/users/"+itoa(author.ID)+"/subscribe/", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
