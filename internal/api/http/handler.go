package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	app "grapeguard/internal/application"
	"grapeguard/internal/domain/entity"
)

// DiagnosisHandler HTTP-обработчики диагностики листа
type DiagnosisHandler struct {
	diagnosis     *app.DiagnosisService
	maxImageBytes int64
}

func NewDiagnosisHandler(diagnosis *app.DiagnosisService, maxImageBytes int64) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosis: diagnosis, maxImageBytes: maxImageBytes}
}

func (h *DiagnosisHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	router.POST("/predict", h.Predict)
	router.GET("/classes", h.Classes)
	router.GET("/history", h.History)
}

// predictRequest тело JSON-запроса /predict
type predictRequest struct {
	Image             string `json:"image"`
	ImageURL          string `json:"imageUrl"`
	IncludeDetections bool   `json:"include_detections"`
}

func (h *DiagnosisHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":       "grapeguard",
		"status":        statusLabel(h.diagnosis.Status(), h.diagnosis.FallbackEnabled()),
		"endpoints":     []string{"/health", "/predict", "/classes", "/history"},
		"active_method": h.diagnosis.Status().ActiveMethod(),
	})
}

func (h *DiagnosisHandler) Health(c *gin.Context) {
	state := h.diagnosis.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":               statusLabel(state, h.diagnosis.FallbackEnabled()),
		"ready":                state.Ready(),
		"dependency_available": state.DependencyAvailable,
		"model_loaded":         state.Ready(),
		"model_exists":         state.WeightsExist,
		"model_path":           state.WeightsPath,
		"threshold":            state.Threshold,
		"classes":              state.Classes,
		"device":               state.Device,
		"active_method":        state.ActiveMethod(),
		"fallback_enabled":     h.diagnosis.FallbackEnabled(),
		"model_state":          state.Phase,
		"failure":              state.Failure,
		"failure_reason":       state.FailureReason,
	})
}

func (h *DiagnosisHandler) Predict(c *gin.Context) {
	req, err := h.parsePredict(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.diagnosis.Diagnose(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrModelUnavailable):
			state := h.diagnosis.Status()
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":        err.Error(),
				"model_state":  state.Phase,
				"failure":      state.Failure,
				"model_exists": state.WeightsExist,
			})
		default:
			log.Printf("Prediction failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *DiagnosisHandler) Classes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"classes": entity.Classes()})
}

func (h *DiagnosisHandler) History(c *gin.Context) {
	limit := app.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	reports, err := h.diagnosis.History(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Failed to load history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

// parsePredict принимает JSON или multipart с полем file/image.
func (h *DiagnosisHandler) parsePredict(c *gin.Context) (app.DiagnoseRequest, error) {
	var req app.DiagnoseRequest
	req.IncludeDetections = queryBool(c, "include_detections")

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("file")
		if err != nil {
			file, err = c.FormFile("image")
		}
		if err != nil {
			if image := c.PostForm("image"); image != "" {
				req.Image = image
				req.IncludeDetections = req.IncludeDetections || formBool(c, "include_detections")
				return req, nil
			}
			return req, fmt.Errorf("no image provided")
		}

		data, err := h.readUpload(file)
		if err != nil {
			return req, err
		}
		req.File = data
		req.IncludeDetections = req.IncludeDetections || formBool(c, "include_detections")
		return req, nil
	}

	// лимит тела с запасом на base64
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes*4/3+4096)

	var body predictRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return req, fmt.Errorf("invalid JSON body: %v", err)
	}
	if body.Image == "" && body.ImageURL == "" {
		return req, fmt.Errorf("no image provided")
	}

	req.Image = body.Image
	req.ImageURL = body.ImageURL
	req.IncludeDetections = req.IncludeDetections || body.IncludeDetections
	return req, nil
}

func (h *DiagnosisHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %v", err)
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageBytes)
	}
	return data, nil
}

func statusLabel(state entity.ModelState, fallback bool) string {
	switch {
	case state.Ready():
		return "model_ready"
	case fallback:
		return "fallback"
	default:
		return "model_not_loaded"
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

func formBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.PostForm(key))
	return v
}
