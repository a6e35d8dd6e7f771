//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-identity/internal/model"
)

func TestAdminUserManagement(t *testing.T) {
	server, authService := newTestServer(t)
	adminToken, admin := loginAdmin(t, server, authService)

	// Seed a few regular users.
	ids := map[string]string{}
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		status, body := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"email":    email,
			"password": "secret1",
		})
		require.Equal(t, http.StatusCreated, status)

		var created model.User
		require.NoError(t, json.Unmarshal(body.Data, &created))
		ids[email] = created.ID
	}

	t.Run("list with role filter", func(t *testing.T) {
		status, body := doJSON(t, server, http.MethodGet, "/api/v1/users?role=user", adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		var list model.UserList
		require.NoError(t, json.Unmarshal(body.Data, &list))
		require.Len(t, list.Users, 2)
		require.NotNil(t, body.Meta)
		require.Equal(t, 2, body.Meta.Count)
	})

	t.Run("pagination", func(t *testing.T) {
		status, body := doJSON(t, server, http.MethodGet, "/api/v1/users?offset=1&limit=1", adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		var list model.UserList
		require.NoError(t, json.Unmarshal(body.Data, &list))
		require.Len(t, list.Users, 1)
	})

	t.Run("get by id", func(t *testing.T) {
		status, body := doJSON(t, server, http.MethodGet, "/api/v1/users/"+ids["alice@example.com"], adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		var user model.User
		require.NoError(t, json.Unmarshal(body.Data, &user))
		require.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("update by id", func(t *testing.T) {
		status, body := doJSON(t, server, http.MethodPut, "/api/v1/users/"+ids["alice@example.com"], adminToken, map[string]any{
			"is_active": false,
		})
		require.Equal(t, http.StatusOK, status)

		var user model.User
		require.NoError(t, json.Unmarshal(body.Data, &user))
		require.False(t, user.IsActive)
	})

	t.Run("delete matrix", func(t *testing.T) {
		// Non-existent id.
		status, body := doJSON(t, server, http.MethodDelete, "/api/v1/users/no-such-id", adminToken, nil)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "NOT_FOUND", body.Error.Code)

		// Own id.
		status, body = doJSON(t, server, http.MethodDelete, "/api/v1/users/"+admin.ID, adminToken, nil)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, "CANNOT_DELETE_SELF", body.Error.Code)

		// A different existing user.
		status, _ = doJSON(t, server, http.MethodDelete, "/api/v1/users/"+ids["bob@example.com"], adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, body = doJSON(t, server, http.MethodGet, "/api/v1/users/"+ids["bob@example.com"], adminToken, nil)
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestAdminRoutesForbiddenForRegularUsers(t *testing.T) {
	server, _ := newTestServer(t)

	status, _ := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	var token model.Token
	require.NoError(t, json.Unmarshal(body.Data, &token))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/users/some-id"},
		{http.MethodPut, "/api/v1/users/some-id"},
		{http.MethodDelete, "/api/v1/users/some-id"},
	}

	for _, route := range paths {
		t.Run(fmt.Sprintf("%s %s", route.method, route.path), func(t *testing.T) {
			var payload any
			if route.method == http.MethodPut {
				payload = map[string]string{"full_name": "X"}
			}

			status, body := doJSON(t, server, route.method, route.path, token.AccessToken, payload)
			require.Equal(t, http.StatusForbidden, status)
			require.Equal(t, "FORBIDDEN", body.Error.Code)
		})
	}
}
