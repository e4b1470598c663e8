// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the route wiring

package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/VoiceLedger/services/voice/conversation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, audioDir string) *gin.Engine {
	t.Helper()
	router := gin.New()
	SetupRoutes(router, &conversation.Controller{}, audioDir)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_Health(t *testing.T) {
	router := newRouter(t, t.TempDir())

	w := get(router, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSetupRoutes_Metrics(t *testing.T) {
	router := newRouter(t, t.TempDir())

	w := get(router, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestSetupRoutes_ServesAudioArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abcd1234.mp3"), []byte("mp3-bytes"), 0o644))
	router := newRouter(t, dir)

	w := get(router, "/audio/abcd1234.mp3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mp3-bytes", w.Body.String())

	w = get(router, "/audio/missing.mp3")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRoutes_WebhooksArePostOnly(t *testing.T) {
	router := newRouter(t, t.TempDir())

	for _, path := range []string{ConnectPath, HandlePath, StatusPath, TestPath} {
		w := get(router, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
