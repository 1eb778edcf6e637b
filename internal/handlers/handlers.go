package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/example/snake-check/docs"
	"github.com/example/snake-check/internal/classification"
	"github.com/example/snake-check/internal/logging"
)

// MaxRequestBodySize bounds the JSON body of a classify request.
const MaxRequestBodySize = 10 << 20

const serviceName = "snake-check"

// corsHeaders are attached to every classify response, success or failure.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

// Classifier is the use case behind the classify endpoint.
type Classifier interface {
	Classify(ctx context.Context, requestID, imageB64 string) (classification.Result, error)
}

// ClassifyRequest is the JSON body accepted by the classify endpoint.
type ClassifyRequest struct {
	// Base64 image bytes, optionally as a data URI.
	Image string `json:"image" example:"/9j/4AAQSkZJRgABAQ..."`
}

// Handler serves the classification API.
type Handler struct {
	classifier Classifier
	logger     *zap.Logger
}

// NewHandler creates a handler backed by classifier.
func NewHandler(classifier Classifier, logger *zap.Logger) *Handler {
	return &Handler{classifier: classifier, logger: logger.Named("handlers")}
}

// RegisterRoutes wires middleware and HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, classifier Classifier, logger *zap.Logger) {
	h := NewHandler(classifier, logger)

	router.Use(RequestID(), RequestLogger(logger), Recovery(logger))
	// Browser preflights stop here; answer them with the same 200 as Preflight.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	for _, path := range []string{"/", "/classify"} {
		router.POST(path, h.Classify)
		router.OPTIONS(path, h.Preflight)
	}
}

// Classify godoc
//
//	@Summary		Classify a snake photo
//	@Description	Sends the photo to a vision model and returns whether the snake is venomous.
//	@Tags			classify
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ClassifyRequest				true	"Base64 encoded image"
//	@Success		200		{object}	classification.Result
//	@Failure		500		{object}	classification.Result
//	@Router			/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize))
	if err != nil {
		h.logger.Warn("failed to read request body", zap.Error(err), zap.String("request_id", GetRequestID(c)))
		writeResult(c, http.StatusInternalServerError, classification.ErrorResult(userMessage(err)))
		return
	}

	status, result := h.process(c.Request.Context(), GetRequestID(c), body)
	writeResult(c, status, result)
}

// Preflight answers OPTIONS requests that arrive without an Origin header.
func (h *Handler) Preflight(c *gin.Context) {
	setCORSHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
}

// process runs one classification for a raw JSON body and returns the status
// code and body to send. It never fails; every error becomes an Error result.
func (h *Handler) process(ctx context.Context, requestID string, body []byte) (int, classification.Result) {
	var req ClassifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("malformed request body", zap.Error(err), zap.String("request_id", requestID))
		return http.StatusInternalServerError, classification.ErrorResult(fmt.Sprintf("invalid request body: %v", err))
	}

	result, err := h.classifier.Classify(ctx, requestID, req.Image)
	if err != nil {
		h.logger.Error("classification failed", zap.Error(err), zap.String("request_id", requestID))
		return http.StatusInternalServerError, classification.ErrorResult(userMessage(err))
	}
	return http.StatusOK, result
}

func userMessage(err error) string {
	cause := logging.Cause(err)
	var maxBytesErr *http.MaxBytesError
	if errors.As(cause, &maxBytesErr) {
		return fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit)
	}
	return cause.Error()
}

func writeResult(c *gin.Context, status int, result classification.Result) {
	setCORSHeaders(c.Writer.Header())
	c.JSON(status, result)
}

func setCORSHeaders(header http.Header) {
	for key, value := range corsHeaders {
		header.Set(key, value)
	}
}
