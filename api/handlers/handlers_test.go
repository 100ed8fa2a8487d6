package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-insights/internal/service/session"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/storage/local"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixtureDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"USER_LOG.csv": "User Full Name *Anonymized\n1\n2\n",
		"ACTIVITY_LOG.csv": "User Full Name *Anonymized,Component,Action,Date\n" +
			"1,Quiz,Attempt,05-03-2024\n" +
			"1,System,Login,05-03-2024\n" +
			"2,Quiz,Attempt,20-03-2024\n",
		"COMPONENT_CODES.csv": "Code,Component\nQZ,Quiz\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := local.New(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	svc := session.NewService(store, nil, nil, logger.NewTestLogger(), &session.Config{})

	h := NewHandlers(svc, logger.NewTestLogger())
	r := gin.New()
	v1 := r.Group("/api/v1")
	ds := v1.Group("/dataset")
	ds.POST("/load", h.Dataset.Load)
	ds.POST("/prepare", h.Dataset.Prepare)
	ds.GET("/download", h.Dataset.Download)
	v1.POST("/analysis", h.Analysis.Analyze)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": fixtureDataDir(t)})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["users"])
	assert.Equal(t, float64(3), resp["activity"])
}

func TestLoadEndpointMissingDir(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": t.TempDir()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "USER_LOG")
}

func TestPrepareEndpointBeforeLoad(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/dataset/prepare", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPrepareAndAnalyzeEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": fixtureDataDir(t)})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/dataset/prepare", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shape))
	assert.Equal(t, float64(2), shape["rows"])
	assert.Equal(t, []interface{}{"Quiz"}, shape["components"])

	w = doJSON(r, http.MethodPost, "/api/v1/analysis", gin.H{
		"components":   []string{"Quiz"},
		"analysisType": "monthly_totals",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, float64(2), result["rowCount"])
	totals, ok := result["monthlyTotals"].([]interface{})
	require.True(t, ok)
	require.Len(t, totals, 1)
}

func TestAnalyzeEndpointEmptyViewIsOK(t *testing.T) {
	r := newTestRouter(t)

	doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": fixtureDataDir(t)})
	doJSON(r, http.MethodPost, "/api/v1/dataset/prepare", nil)

	w := doJSON(r, http.MethodPost, "/api/v1/analysis", gin.H{"userIds": []string{"99"}})
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, float64(0), result["rowCount"])
	assert.Equal(t, "no rows matched the given filters", result["message"])
}

func TestAnalyzeEndpointDateRangeOnMatrix(t *testing.T) {
	r := newTestRouter(t)

	doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": fixtureDataDir(t)})
	doJSON(r, http.MethodPost, "/api/v1/dataset/prepare", nil)

	w := doJSON(r, http.MethodPost, "/api/v1/analysis", gin.H{
		"startDate": "2024-03-01",
		"endDate":   "2024-03-31",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeEndpointRejectsUnknownType(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/analysis", gin.H{"analysisType": "histogram"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	doJSON(r, http.MethodPost, "/api/v1/dataset/load", gin.H{"dir": fixtureDataDir(t)})
	doJSON(r, http.MethodPost, "/api/v1/dataset/prepare", nil)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/dataset/download", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), session.PreparedKey)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 2)
}
