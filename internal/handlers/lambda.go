package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/snake-check/internal/classification"
)

// LambdaFunc is the signature expected by lambda.Start for function URLs.
type LambdaFunc func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error)

// NewLambdaHandler exposes the classify endpoint as an AWS Lambda function
// URL handler. It never returns an error: failures are reported in the body.
func NewLambdaHandler(classifier Classifier, logger *zap.Logger) LambdaFunc {
	h := NewHandler(classifier, logger)
	return func(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		if req.RequestContext.HTTP.Method == http.MethodOptions {
			return lambdaResponse(http.StatusOK, ""), nil
		}

		requestID := lambdaRequestID(ctx)
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return h.lambdaResult(http.StatusInternalServerError, classification.ErrorResult("invalid request body: "+err.Error())), nil
			}
			body = decoded
		}

		status, result := h.process(ctx, requestID, body)
		return h.lambdaResult(status, result), nil
	}
}

func (h *Handler) lambdaResult(status int, result classification.Result) events.LambdaFunctionURLResponse {
	payload, err := json.Marshal(result)
	if err != nil {
		h.logger.Error("failed to encode lambda response", zap.Error(err))
		return lambdaResponse(http.StatusInternalServerError, `{"status":"Error","description":"Error processing image: encode response"}`)
	}
	return lambdaResponse(status, string(payload))
}

func lambdaResponse(status int, body string) events.LambdaFunctionURLResponse {
	headers := map[string]string{"Content-Type": "application/json"}
	for key, value := range corsHeaders {
		headers[key] = value
	}
	return events.LambdaFunctionURLResponse{StatusCode: status, Headers: headers, Body: body}
}

func lambdaRequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
