package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	app "grapeguard/internal/application"
	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
	"grapeguard/internal/infrastructure/imageio"
	"grapeguard/internal/infrastructure/storage"
	"grapeguard/internal/infrastructure/vision"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// availableLoader делает вид, что библиотека инференса собрана, но модель построить нельзя
type availableLoader struct{}

func (availableLoader) DependencyAvailable() bool { return true }

func (availableLoader) Load(string) (port.Segmenter, error) {
	return nil, entity.ErrModelUnavailable
}

type testEnv struct {
	handler http.Handler
	tracker *app.ModelTracker
}

// newTestEnv поднимает сервис, у которого скачивание весов заканчивается 404.
func newTestEnv(t *testing.T, fallback bool) *testEnv {
	t.Helper()

	weightsSrv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(weightsSrv.Close)

	weights := vision.NewWeightsFile(filepath.Join(t.TempDir(), "model_final.onnx"), weightsSrv.URL+"/model_final.onnx", 1<<20, nil)
	tracker := app.NewModelTracker(availableLoader{}, weights, 0.7)
	tracker.Initialize(context.Background())

	predictor := app.NewPredictionService(tracker, vision.NewHeuristicClassifier(), app.NewReportNormalizer(app.DefaultHealthyConfidence), app.PredictionConfig{
		Threshold:        0.7,
		InferenceTimeout: 5 * time.Second,
		FallbackEnabled:  fallback,
	})
	diagnosis := app.NewDiagnosisService(imageio.NewDecoder(1<<20, time.Second), predictor, nil, storage.NewMemoryReportRepository(10))
	server := NewServer(diagnosis, Options{Port: "0", CORSOrigins: []string{"*"}, MaxImageBytes: 1 << 20})

	return &testEnv{handler: server.Handler(), tracker: tracker}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func leafPNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jsonRequest(t *testing.T, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPredict_UniformGreenIsHealthy(t *testing.T) {
	env := newTestEnv(t, true)
	payload := base64.StdEncoding.EncodeToString(leafPNG(t, color.NRGBA{R: 60, G: 160, B: 60, A: 255}))

	rec, body := env.do(t, jsonRequest(t, map[string]any{"image": payload}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Healthy", body["disease"])
	require.Equal(t, string(entity.MethodColorAnalysis), body["method"])
	require.InDelta(t, 82.5, body["confidence"].(float64), 7.5)
	require.EqualValues(t, 5, body["class_id"])
	require.NotEmpty(t, body["request_id"])
}

func TestPredict_UniformBrownIsAnthracnose(t *testing.T) {
	env := newTestEnv(t, true)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(leafPNG(t, color.NRGBA{R: 139, G: 69, B: 19, A: 255}))

	rec, body := env.do(t, jsonRequest(t, map[string]any{"image": payload}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Karpa (Anthracnose)", body["disease"])
	confidence := body["confidence"].(float64)
	require.GreaterOrEqual(t, confidence, 60.0)
	require.LessOrEqual(t, confidence, 85.0)
	require.Equal(t, "High", body["severity"])
}

func TestPredict_MalformedBase64(t *testing.T) {
	env := newTestEnv(t, true)

	rec, body := env.do(t, jsonRequest(t, map[string]any{"image": "@@@ definitely not base64 @@@"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body["error"])
}

func TestPredict_MissingImage(t *testing.T) {
	env := newTestEnv(t, true)

	rec, body := env.do(t, jsonRequest(t, map[string]any{"include_detections": true}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "no image")

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec, _ = env.do(t, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_Multipart(t *testing.T) {
	env := newTestEnv(t, true)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "leaf.png")
	require.NoError(t, err)
	_, err = part.Write(leafPNG(t, color.NRGBA{R: 60, G: 160, B: 60, A: 255}))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Healthy", body["disease"])
}

func TestPredict_UnavailableWithoutFallback(t *testing.T) {
	env := newTestEnv(t, false)
	payload := base64.StdEncoding.EncodeToString(leafPNG(t, color.NRGBA{R: 60, G: 160, B: 60, A: 255}))

	rec, body := env.do(t, jsonRequest(t, map[string]any{"image": payload}))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, string(entity.FailureWeightsMissing), body["failure"])
	require.Equal(t, false, body["model_exists"])
}

func TestHealth_AfterFailedDownload(t *testing.T) {
	env := newTestEnv(t, true)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["model_loaded"])
	require.Equal(t, false, body["model_exists"])
	require.Equal(t, true, body["dependency_available"])
	require.Equal(t, string(entity.FailureWeightsMissing), body["failure"])
	require.Equal(t, string(entity.MethodColorAnalysis), body["active_method"])
	require.Equal(t, "cpu", body["device"])
	require.Equal(t, "fallback", body["status"])
	require.Len(t, body["classes"], entity.ClassCount)
}

func TestIndexAndClasses(t *testing.T) {
	env := newTestEnv(t, true)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "grapeguard", body["service"])

	rec, body = env.do(t, httptest.NewRequest(http.MethodGet, "/classes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	classes := body["classes"].([]any)
	require.Len(t, classes, entity.ClassCount)
	first := classes[0].(map[string]any)
	require.EqualValues(t, 1, first["id"])
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, true)
	payload := base64.StdEncoding.EncodeToString(leafPNG(t, color.NRGBA{R: 60, G: 160, B: 60, A: 255}))

	rec, _ := env.do(t, jsonRequest(t, map[string]any{"image": payload}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/history?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])

	rec, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_AllowList(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware([]string{"https://grapeguard.app"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://grapeguard.app")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, "https://grapeguard.app", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
