// Package server exposes the logo pipeline over HTTP.
package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey          = "requestID"
	defaultMaxUploadBytes = 20 << 20
	msgNoImage            = "No image provided"
)

// ServiceProvider returns the shared pipeline, building it on first use.
type ServiceProvider func() (*pipeline.Service, error)

// LazyService builds the pipeline once per process, on the first request.
// Later calls return the same service or the same construction error.
func LazyService(build func() (*pipeline.Service, error)) ServiceProvider {
	return sync.OnceValues(build)
}

// Handler serves the logo optimization API.
type Handler struct {
	service        ServiceProvider
	log            *logger.Logger
	maxUploadBytes int64
}

// NewHandler creates a Handler. maxUploadBytes <= 0 selects the default cap.
func NewHandler(service ServiceProvider, maxUploadBytes int64, log *logger.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return &Handler{
		service:        service,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// NewRouter wires the API routes onto a gin engine.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID())

	router.GET("/healthz", handler.Health)
	router.POST("/api/optimize-logo", handler.OptimizeLogo)

	return router
}

// requestID tags every request with an X-Request-ID, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

type optimizeRequest struct {
	Image string `json:"image"`
}

type variationResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type analysisResponse struct {
	AvgLuminance         string   `json:"avgLuminance"`
	Palette              []string `json:"palette"`
	IsPredominantlyDark  bool     `json:"isPredominantlyDark"`
	IsPredominantlyLight bool     `json:"isPredominantlyLight"`
}

type optimizeResponse struct {
	Variations []variationResponse `json:"variations"`
	Analysis   analysisResponse    `json:"analysis"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// OptimizeLogo accepts a base64 image (optionally a data URL) and responds with
// three PNG variants plus the color analysis.
func (h *Handler) OptimizeLogo(c *gin.Context) {
	id := c.GetString(requestIDKey)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var req optimizeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Warn("Request [%s]: body exceeds %d bytes", id, h.maxUploadBytes)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image too large"})

			return
		}

		h.log.Warn("Request [%s]: malformed body: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})

		return
	}

	if strings.TrimSpace(req.Image) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoImage})

		return
	}

	image, err := decodeImagePayload(req.Image)
	if err != nil {
		h.log.Warn("Request [%s]: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	service, err := h.service()
	if err != nil {
		h.log.Error("Request [%s]: pipeline unavailable: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	result, err := service.Process(c.Request.Context(), id, image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, newOptimizeResponse(result))
}

// decodeImagePayload strips an optional data-URL prefix and decodes base64.
func decodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, logoerr.InvalidImage("malformed data URL", nil)
		}

		payload = payload[comma+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(payload)
	}

	if err != nil {
		return nil, logoerr.InvalidImage("image is not valid base64", err)
	}

	if len(decoded) == 0 {
		return nil, logoerr.InvalidImage(msgNoImage, nil)
	}

	return decoded, nil
}

func newOptimizeResponse(result *pipeline.Result) optimizeResponse {
	variations := make([]variationResponse, 0, len(result.Variants))
	for _, variant := range result.Variants {
		variations = append(variations, variationResponse{
			ID:          variant.ID,
			Label:       variant.Label,
			Description: variant.Description,
			Image:       base64.StdEncoding.EncodeToString(variant.PNG),
		})
	}

	palette := result.Palette
	if palette == nil {
		palette = []string{}
	}

	return optimizeResponse{
		Variations: variations,
		Analysis: analysisResponse{
			AvgLuminance:         fmt.Sprintf("%.2f", result.Analysis.AvgLuminance),
			Palette:              palette,
			IsPredominantlyDark:  result.Analysis.IsPredominantlyDark,
			IsPredominantlyLight: result.Analysis.IsPredominantlyLight,
		},
	}
}
