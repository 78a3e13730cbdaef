// Package cloudfunction adapts API Gateway events to the HTTP router.
package cloudfunction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/learnloop/video-backend/internal/bootstrap"
)

// Request is the API Gateway event shape.
type Request struct {
	HTTPMethod        string            `json:"httpMethod"`
	Headers           map[string]string `json:"headers"`
	Path              string            `json:"path"`
	QueryStringParams map[string]string `json:"queryStringParameters"`
	Body              string            `json:"body"`
	IsBase64Encoded   bool              `json:"isBase64Encoded"`
}

// Response is the API Gateway response shape.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

var (
	router   http.Handler
	initOnce bool
)

// Handler is the cloud function entrypoint. The application graph is
// built on the first invocation and reused for the container's lifetime.
func Handler(ctx context.Context, request []byte) ([]byte, error) {
	if !initOnce {
		r, err := bootstrap.Initialize(ctx)
		if err != nil {
			slog.Error("Failed to initialize", "error", err)
			return respondError(http.StatusInternalServerError, "Failed to initialize: "+err.Error())
		}
		router = r
		initOnce = true
		slog.Info("Cloud Function initialized successfully")
	}

	var gwReq Request
	if err := json.Unmarshal(request, &gwReq); err != nil {
		slog.Error("Failed to parse request", "error", err)
		return respondError(http.StatusBadRequest, "Invalid request format")
	}

	httpReq, err := buildHTTPRequest(&gwReq)
	if err != nil {
		slog.Error("Failed to build HTTP request", "error", err)
		return respondError(http.StatusBadRequest, "Failed to build request")
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httpReq)

	return buildResponse(rr), nil
}

func buildHTTPRequest(gwReq *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if gwReq.Body != "" {
		if gwReq.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(gwReq.Body)
			if err != nil {
				return nil, err
			}
			bodyReader = bytes.NewReader(decoded)
		} else {
			bodyReader = bytes.NewBufferString(gwReq.Body)
		}
	}

	req, err := http.NewRequest(gwReq.HTTPMethod, gwReq.Path, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range gwReq.Headers {
		req.Header.Set(key, value)
	}

	if len(gwReq.QueryStringParams) > 0 {
		q := req.URL.Query()
		for key, value := range gwReq.QueryStringParams {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	return req, nil
}

func buildResponse(rr *httptest.ResponseRecorder) []byte {
	headers := make(map[string]string)
	for key, values := range rr.Header() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	response := Response{
		StatusCode:      rr.Code,
		Headers:         headers,
		Body:            rr.Body.String(),
		IsBase64Encoded: false,
	}

	respData, _ := json.Marshal(response)
	return respData
}

func respondError(statusCode int, message string) ([]byte, error) {
	body, _ := json.Marshal(map[string]string{"error": message})

	response := Response{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body:            string(body),
		IsBase64Encoded: false,
	}

	return json.Marshal(response)
}
