//go:build integration
// +build integration

package integration

import (
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/config"
	"github.com/mkettner/comscore-go/internal/db"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/server"
)

func init() {
	logger.Init("error", false)
}

// setupCollector starts an in-process collector on an httptest listener
// backed by an in-memory database with migrations applied.
func setupCollector(t *testing.T) (*httptest.Server, *db.Repositories, func()) {
	t.Helper()

	database, err := db.New(":memory:")
	require.NoError(t, err, "Failed to create in-memory database")

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Get absolute path to migrations directory relative to this file
	// so tests work regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)
	rootDir := filepath.Dir(filepath.Dir(testDir))
	migrationsPath := "file://" + filepath.Join(rootDir, "migrations")

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         8080,
			Host:         "127.0.0.1",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}

	srv := server.New(cfg, database)
	ts := httptest.NewServer(srv.Router())

	repos := db.NewRepositories(database)

	cleanup := func() {
		ts.Close()
		_ = database.Close()
	}

	return ts, repos, cleanup
}

// testConfiguration returns a valid publisher configuration for plugins
func testConfiguration() comscore.Configuration {
	return comscore.Configuration{
		PublisherID:     "pub-integration",
		ApplicationName: "integration-player",
		UserConsent:     comscore.ConsentGranted,
	}
}

// vodMetadata returns on-demand content metadata for the test asset
func vodMetadata() *comscore.ContentMetadata {
	return &comscore.ContentMetadata{
		MediaType:     comscore.MediaTypeLongFormOnDemand,
		UniqueID:      "ep-100",
		LengthMs:      600000,
		ProgramTitle:  "Evening Show",
		EpisodeTitle:  "Pilot",
		PublisherName: "Example TV",
	}
}
