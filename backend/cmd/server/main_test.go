package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"circle-media/backend/internal/api"
	"circle-media/backend/internal/engine"
	"circle-media/backend/internal/store"
	"circle-media/backend/pkg/config"
)

// newServer wires the router the same way main does, over the memory store
func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := store.Open(t.Context(), &config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return api.NewRouter(engine.New(st), zap.NewNop(), api.Options{})
}

func TestHealthEndpoint(t *testing.T) {
	router := newServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestMetricsDisabled(t *testing.T) {
	router := newServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignupEndpoint_InvalidRequest(t *testing.T) {
	router := newServer(t)

	// Test missing fields
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/users/signup", bytes.NewBuffer([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewPostEndpoint_Unauthenticated(t *testing.T) {
	router := newServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/newPost", bytes.NewBuffer([]byte(`{"content":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
