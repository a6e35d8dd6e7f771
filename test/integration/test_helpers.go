//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-identity/internal/config"
	"go-identity/internal/crypto"
	"go-identity/internal/handler"
	"go-identity/internal/middleware"
	"go-identity/internal/model"
	"go-identity/internal/repository"
	"go-identity/internal/router"
	"go-identity/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func newTestServer(t *testing.T) (*httptest.Server, *service.AuthService) {
	t.Helper()

	directory := repository.NewMemoryDirectory()
	hasher, err := crypto.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := crypto.NewCodec("test-secret", 168*time.Hour)
	require.NoError(t, err)

	authService := service.NewAuthService(directory, hasher, codec)
	userService := service.NewUserService(directory)

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		RateLimitRPM:     100000,
		AuthRateLimitRPM: 100000,
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
	}, nil)

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return server, authService
}

func loginAdmin(t *testing.T, server *httptest.Server, authService *service.AuthService) (string, model.User) {
	t.Helper()

	admin, err := authService.Register(context.Background(), model.RegisterRequest{
		Email:    "root@example.com",
		Password: "admin-secret",
		FullName: "Root",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	status, body := doJSON(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "root@example.com",
		"password": "admin-secret",
	})
	require.Equal(t, http.StatusOK, status)

	var token model.Token
	require.NoError(t, json.Unmarshal(body.Data, &token))
	return token.AccessToken, admin
}

func doJSON(t *testing.T, server *httptest.Server, method string, path string, token string, payload any) (int, envelope) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, server.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}
