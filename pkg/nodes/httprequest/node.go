// Package httprequest provides the HTTP request node.
package httprequest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/protocol"
	"github.com/dukex/scenarios/pkg/template"
)

// Auth types applied from connection secrets.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
)

// Config defines the configuration for HTTP request nodes.
type Config struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body,omitempty"`
	Timeout      int               `json:"timeout"`
	Retries      RetryConfig       `json:"retries"`
	Auth         string            `json:"auth"`
	APIKeyHeader string            `json:"api_key_header"`
}

// RetryConfig defines retry behavior for HTTP requests.
type RetryConfig struct {
	Attempts int `json:"attempts"`
	Delay    int `json:"delay"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Handler performs templated HTTP calls, optionally authenticated with the
// node's connection.
type Handler struct {
	logger *slog.Logger
	client *http.Client
}

func NewHandler(logger *slog.Logger, client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{}
	}

	return &Handler{logger: logger, client: client}
}

// ParseConfig reads a node config into a Config with defaults applied.
func ParseConfig(config map[string]any) (Config, error) {
	httpConfig := Config{
		Method:       http.MethodGet,
		Headers:      make(map[string]string),
		Timeout:      30,
		Retries:      RetryConfig{Attempts: 1, Delay: 0},
		APIKeyHeader: "X-API-Key",
	}

	url, ok := config["url"].(string)
	if !ok || url == "" {
		return httpConfig, errors.New("missing required field 'url'")
	}

	httpConfig.URL = url

	if method, ok := config["method"].(string); ok {
		httpConfig.Method = strings.ToUpper(method)
	}

	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				httpConfig.Headers[k] = strVal
			}
		}
	}

	if body, ok := config["body"].(string); ok {
		httpConfig.Body = body
	}

	if timeout, ok := config["timeout"].(float64); ok {
		httpConfig.Timeout = int(timeout)
	}

	if retries, ok := config["retries"].(map[string]any); ok {
		if attempts, ok := retries["attempts"].(float64); ok && attempts >= 1 {
			httpConfig.Retries.Attempts = int(attempts)
		}

		if delay, ok := retries["delay"].(float64); ok {
			httpConfig.Retries.Delay = int(delay)
		}
	}

	if auth, ok := config["auth"].(string); ok {
		httpConfig.Auth = auth
	}

	if header, ok := config["api_key_header"].(string); ok && header != "" {
		httpConfig.APIKeyHeader = header
	}

	return httpConfig, nil
}

// Execute performs the HTTP request. 5xx responses and transport errors are
// retried; 4xx responses fail immediately.
func (h *Handler) Execute(ctx context.Context, req *protocol.HandlerRequest) (*protocol.HandlerResult, error) {
	cfg, err := ParseConfig(req.Config)
	if err != nil {
		return protocol.Failure(err.Error()), nil
	}

	tctx := req.TemplateContext()

	renderedURL, err := template.RenderWithContext(cfg.URL, tctx)
	if err != nil {
		return protocol.Failure(fmt.Sprintf("failed to render URL template: %v", err)), nil
	}

	urlStr, ok := renderedURL.(string)
	if !ok {
		return protocol.Failure("URL template must render to string"), nil
	}

	body, err := h.renderBody(cfg, req)
	if err != nil {
		return protocol.Failure(err.Error()), nil
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		renderedValue, err := template.RenderWithContext(value, tctx)
		if strVal, ok := renderedValue.(string); err == nil && ok {
			headers[key] = strVal
		} else {
			headers[key] = value
		}
	}

	secretHeaders, err := applyAuth(cfg, req.Connection, headers)
	if err != nil {
		return protocol.Failure(err.Error()), nil
	}

	requestInfo := (&models.RequestInfo{Endpoint: urlStr, Method: cfg.Method, Headers: headers}).Masked(secretHeaders...)

	var lastErr error

	for attempt := 1; attempt <= cfg.Retries.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(cfg.Retries.Delay) * time.Millisecond):
			}
		}

		output, responseInfo, err := h.performRequest(ctx, cfg, urlStr, body, headers)
		if err == nil {
			result := protocol.Success(output)
			result.RequestInfo = requestInfo
			result.ResponseInfo = responseInfo

			return result, nil
		}

		lastErr = err

		h.logger.WarnContext(ctx, "HTTP request attempt failed",
			"run_id", req.RunID, "node_id", req.NodeID, "attempt", attempt, "error", err)

		httpErr := &HTTPError{}
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			result := protocol.Failure(err.Error())
			result.RequestInfo = requestInfo
			result.ResponseInfo = responseInfo

			return result, nil
		}

		if ctx.Err() != nil {
			break
		}
	}

	result := protocol.Failure(fmt.Sprintf("HTTP request failed after %d attempts: %v", cfg.Retries.Attempts, lastErr))
	result.RequestInfo = requestInfo

	return result, nil
}

// renderBody renders the configured body; without one, write methods send the
// node input as JSON.
func (h *Handler) renderBody(cfg Config, req *protocol.HandlerRequest) (string, error) {
	if cfg.Body == "" {
		switch cfg.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if len(req.Input) == 0 {
				return "", nil
			}

			encoded, err := json.Marshal(req.Input)
			if err != nil {
				return "", fmt.Errorf("failed to encode input as body: %w", err)
			}

			return string(encoded), nil
		default:
			return "", nil
		}
	}

	rendered, err := template.RenderWithContext(cfg.Body, req.TemplateContext())
	if err != nil {
		return "", fmt.Errorf("failed to render body template: %w", err)
	}

	switch v := rendered.(type) {
	case string:
		return v, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode body: %w", err)
		}

		return string(encoded), nil
	}
}

// applyAuth sets the credential headers of the connection and returns the
// names of the headers it filled from secrets.
func applyAuth(cfg Config, conn *protocol.ResolvedConnection, headers map[string]string) ([]string, error) {
	if conn == nil || cfg.Auth == AuthNone {
		return nil, nil
	}

	secrets := conn.Secrets

	auth := cfg.Auth
	if auth == "" {
		switch {
		case secrets["access_token"] != "" || secrets["token"] != "":
			auth = AuthBearer
		case secrets["username"] != "":
			auth = AuthBasic
		case secrets["api_key"] != "":
			auth = AuthAPIKey
		default:
			return nil, nil
		}
	}

	switch auth {
	case AuthBearer:
		token := secrets["access_token"]
		if token == "" {
			token = secrets["token"]
		}

		headers["Authorization"] = "Bearer " + token

		return []string{"Authorization"}, nil
	case AuthBasic:
		credentials := secrets["username"] + ":" + secrets["password"]
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))

		return []string{"Authorization"}, nil
	case AuthAPIKey:
		headers[cfg.APIKeyHeader] = secrets["api_key"]

		return []string{cfg.APIKeyHeader}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", auth)
	}
}

func (h *Handler) performRequest(
	ctx context.Context,
	cfg Config,
	url, body string,
	headers map[string]string,
) (map[string]any, *models.RequestInfo, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, cfg.Method, url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	if body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	responseHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		responseHeaders[k] = resp.Header.Get(k)
	}

	responseInfo := (&models.RequestInfo{
		Endpoint:   url,
		Method:     cfg.Method,
		Headers:    responseHeaders,
		StatusCode: resp.StatusCode,
	}).Masked()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, responseInfo, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     responseHeaders,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, responseInfo, nil
}
