package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qics/adapters/memory"
	"qics/adapters/rng"
	"qics/app"
	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/domain/run"
	"qics/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*Server, *memory.ResultRepository) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Bootstrap.Resamples = 200

	repo := memory.NewResultRepository()
	scalingSvc := app.NewScalingService(cfg, rng.NewDeterministic())
	return NewServer(repo, scalingSvc, gin.TestMode), repo
}

func seedRun(t *testing.T, repo *memory.ResultRepository) core.RunID {
	t.Helper()
	ctx := context.Background()

	runID := core.RunID(core.NewID())
	manifest := run.NewManifest(runID, "/data", "*.dat",
		core.DatasetHash("aaaa"), core.ConfigHash("bbbb"), 42, "test")
	require.NoError(t, repo.SaveRun(ctx, manifest))

	results := []*galaxy.Result{
		{
			GalaxyID: core.GalaxyID("NGC0300"), SampleCount: 12, UsableCount: 12,
			PhaseMetric: 0.2, Phase: galaxy.PhaseOrdered,
			Scale:      galaxy.ScalePoint{RadiusKpc: 10, VelocityKms: 90, DEff: 900},
			AnalyzedAt: core.Now(),
		},
	}
	require.NoError(t, repo.SaveGalaxyResults(ctx, runID, results))
	return runID
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestGetRunAndGalaxies(t *testing.T) {
	srv, repo := testServer(t)
	runID := seedRun(t, repo)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var manifest run.Manifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	assert.Equal(t, runID, manifest.RunID)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID.String()+"/galaxies", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NGC0300")
}

func TestGetRun_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+core.NewID().String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportWithoutStudy(t *testing.T) {
	srv, repo := testServer(t)
	runID := seedRun(t, repo)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID.String()+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "#"))
}

func TestScalingFit(t *testing.T) {
	srv, _ := testServer(t)

	body := map[string]interface{}{
		"points": []map[string]interface{}{
			{"galaxy_id": "A", "m": 0.1, "r": 10.0, "d_eff": 1000.0},
			{"galaxy_id": "B", "m": 0.2, "r": 20.0, "d_eff": 2800.0},
			{"galaxy_id": "C", "m": 0.3, "r": 40.0, "d_eff": 8000.0},
			{"galaxy_id": "D", "m": 0.4, "r": 80.0, "d_eff": 23000.0},
		},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scaling/fit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var study map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &study))
	assert.Contains(t, study, "galaxy_fit")
	assert.Contains(t, study, "bootstrap")
}

func TestScalingFit_BadBody(t *testing.T) {
	srv, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scaling/fit", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
