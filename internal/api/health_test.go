package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkettner/comscore-go/internal/db"
	"github.com/mkettner/comscore-go/internal/models"
)

func getHealth(t *testing.T, router *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)
	return w
}

func setupHealthRouter(database *db.DB, repos *db.Repositories) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, database, repos.Sessions)
	return router
}

// TestHealthCheck_Healthy tests the healthy response shape.
func TestHealthCheck_Healthy(t *testing.T) {
	database, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupHealthRouter(database, repos)

	w := getHealth(t, router)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "healthy", resp.Database)
	assert.Zero(t, resp.OpenSessions)
}

// TestHealthCheck_OpenSessionCount tests that sessions awaiting their
// notifyEnd are counted and closed sessions are not.
func TestHealthCheck_OpenSessionCount(t *testing.T) {
	database, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupHealthRouter(database, repos)
	ingestRouter, _ := setupTestRouter(database, repos)

	for instance := int64(1); instance <= 3; instance++ {
		w := postEvent(t, ingestRouter, testEnvelope(instance, models.MethodCreatePlaybackSession))
		require.Equal(t, http.StatusAccepted, w.Code)
	}
	w := postEvent(t, ingestRouter, testEnvelope(3, models.MethodNotifyEnd))
	require.Equal(t, http.StatusAccepted, w.Code)

	w = getHealth(t, router)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.OpenSessions)
}
