// Package voiceai is the HTTP client for the external voice-AI platform
// that hosts the screening assistants and places their calls.
package voiceai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "spamstopper/pkg/domain-errors"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the voice-AI platform REST API with bearer auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a voice-AI API client. Pass a nil httpClient to use
// a default with a request timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Call is the platform's view of one assistant call.
type Call struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	AssistantID  string  `json:"assistantId"`
	EndedReason  string  `json:"endedReason,omitempty"`
	Cost         float64 `json:"cost,omitempty"`
	Transcript   string  `json:"transcript,omitempty"`
	RecordingURL string  `json:"recordingUrl,omitempty"`
}

// Assistant is a screening character hosted on the platform.
type Assistant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateCallParams configures an assistant call.
type CreateCallParams struct {
	AssistantID    string `json:"assistantId"`
	PhoneNumberID  string `json:"phoneNumberId"`
	CustomerNumber string `json:"-"`
}

type createCallRequest struct {
	AssistantID   string `json:"assistantId"`
	PhoneNumberID string `json:"phoneNumberId"`
	Customer      struct {
		Number string `json:"number"`
	} `json:"customer"`
}

// CreateCall asks the platform to start an assistant call to the customer
// number.
func (c *Client) CreateCall(ctx context.Context, params CreateCallParams) (*Call, error) {
	if params.AssistantID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "assistant ID required")
	}
	body := createCallRequest{
		AssistantID:   params.AssistantID,
		PhoneNumberID: params.PhoneNumberID,
	}
	body.Customer.Number = params.CustomerNumber

	var call Call
	if err := c.do(ctx, http.MethodPost, "/call", body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// GetCall fetches the current state of a platform call.
func (c *Client) GetCall(ctx context.Context, callID string) (*Call, error) {
	if callID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "call ID required")
	}
	var call Call
	if err := c.do(ctx, http.MethodGet, "/call/"+callID, nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// EndCall hangs up an in-progress platform call.
func (c *Client) EndCall(ctx context.Context, callID string) (*Call, error) {
	if callID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "call ID required")
	}
	var call Call
	if err := c.do(ctx, http.MethodDelete, "/call/"+callID, nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// ListAssistants returns the assistants available to this account.
func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var assistants []Assistant
	if err := c.do(ctx, http.MethodGet, "/assistant", nil, &assistants); err != nil {
		return nil, err
	}
	return assistants, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode voice-ai request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build voice-ai request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "voice-ai request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read voice-ai response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "voice-ai API error",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
			)
		}
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("voice-ai API returned status %d", resp.StatusCode))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "decode voice-ai response")
		}
	}
	return nil
}
