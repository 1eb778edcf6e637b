package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/example/snake-check/internal/classification"
	"github.com/example/snake-check/internal/imageprocessor"
	"github.com/example/snake-check/internal/logging"
	"github.com/example/snake-check/internal/vision"
)

var (
	// ErrMissingImage is returned when the request carries no image payload.
	ErrMissingImage = errors.New("image is required")
	// ErrInvalidImage is returned when the payload is not valid base64.
	ErrInvalidImage = errors.New("image is not valid base64")
)

// Options tunes the upstream call.
type Options struct {
	MaxTokens      int
	MaxDimension   uint
	Timeout        time.Duration
	RetryAttempts  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// ClassificationUseCase turns an uploaded snake photo into a verdict.
type ClassificationUseCase struct {
	client         vision.Client
	logger         *zap.Logger
	maxTokens      int
	maxDimension   uint
	timeout        time.Duration
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClassificationUseCase constructs a new use case instance. Zero-valued
// options fall back to a single attempt with the default token ceiling.
func NewClassificationUseCase(client vision.Client, opts Options, logger *zap.Logger) *ClassificationUseCase {
	uc := &ClassificationUseCase{
		client:         client,
		logger:         logger.Named("classification_usecase"),
		maxTokens:      opts.MaxTokens,
		maxDimension:   opts.MaxDimension,
		timeout:        opts.Timeout,
		retryAttempts:  opts.RetryAttempts,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
	}
	if uc.maxTokens <= 0 {
		uc.maxTokens = vision.DefaultMaxTokens
	}
	if uc.retryAttempts < 1 {
		uc.retryAttempts = 1
	}
	if uc.initialBackoff <= 0 {
		uc.initialBackoff = 250 * time.Millisecond
	}
	if uc.maxBackoff <= 0 {
		uc.maxBackoff = 4 * time.Second
	}
	return uc
}

// Classify decodes the base64 image, asks the vision model about it and
// normalizes the reply. Only decoding and upstream failures are errors; an
// unparseable reply yields an Unknown verdict.
func (uc *ClassificationUseCase) Classify(ctx context.Context, requestID, imageB64 string) (classification.Result, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.classify", requestID)

	data, err := DecodeImage(imageB64)
	if err != nil {
		return classification.Result{}, logging.NewOperationError("usecase.decode_image", requestID, err)
	}

	img := imageprocessor.Prepare(data, uc.maxDimension)
	opLogger.Debug("image prepared",
		zap.Int("bytes_in", len(data)),
		zap.Int("bytes_out", len(img.Data)),
		zap.String("mime_type", img.MIMEType),
		zap.Bool("resized", img.Resized),
	)

	req := vision.Request{
		Prompt:    vision.Prompt,
		Image:     img.Data,
		MIMEType:  img.MIMEType,
		MaxTokens: uc.maxTokens,
	}

	var reply string
	started := time.Now()
	err = uc.withRetry(ctx, requestID, "vision.describe", func(ctx context.Context) error {
		text, err := uc.client.Describe(ctx, req)
		if err != nil {
			return err
		}
		reply = text
		return nil
	})
	if err != nil {
		opLogger.Error("vision model call failed",
			zap.Error(err),
			zap.String("provider", uc.client.ProviderName()),
			zap.String("model", uc.client.ModelName()),
		)
		return classification.Result{}, err
	}

	result := classification.Normalize(reply)
	opLogger.Info("snake classified",
		zap.String("status", string(result.Status)),
		zap.String("provider", uc.client.ProviderName()),
		zap.Duration("upstream_latency", time.Since(started)),
	)
	return result, nil
}

// DecodeImage accepts plain base64 or a data URI ("data:image/png;base64,...")
// and returns the raw bytes. Unpadded input is tolerated.
func DecodeImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx != -1 {
			payload = payload[idx+1:]
		}
	}
	if payload == "" {
		return nil, ErrMissingImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return nil, ErrMissingImage
	}
	return data, nil
}

func (uc *ClassificationUseCase) withRetry(ctx context.Context, requestID, operation string, fn func(ctx context.Context) error) error {
	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = uc.attempt(ctx, fn)
		if err == nil {
			if attempt > 0 {
				opLogger.Info("vision call succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient vision error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *ClassificationUseCase) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if uc.timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return fn(callCtx)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return isTransientStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return isTransientStatus(reqErr.HTTPStatusCode)
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return isTransientStatus(geminiErr.Code)
	}
	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) {
		return isTransientStatus(geminiErrPtr.Code)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
