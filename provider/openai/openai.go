package openai_provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/searchchat/models"
)

const maxErrorBody = 64 * 1024

// client streams responses from the OpenAI Responses API
type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	debug      bool
}

// NewOpenAIClient creates a new OpenAI client. headerTimeout bounds the wait for
// response headers only; the body is not time limited.
func NewOpenAIClient(apiKey, baseURL string, headerTimeout time.Duration, logger *log.Logger, debug bool) *client {
	if logger == nil {
		logger = log.New(log.Writer(), "[OPENAI] ", log.LstdFlags)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: transport},
		logger:     logger,
		debug:      debug,
	}
}

// streamEvent is the subset of Responses API stream events we read.
type streamEvent struct {
	Type     string    `json:"type"`
	Delta    string    `json:"delta"`
	Message  string    `json:"message"`
	Code     string    `json:"code"`
	Error    *apiError `json:"error"`
	Response *struct {
		Error *apiError `json:"error"`
	} `json:"response"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Stream sends req with streaming enabled and calls fn for each event. A 400
// response is reported as models.ErrRequestRejected; fn returning an error
// stops the stream and that error is returned.
func (c *client) Stream(ctx context.Context, req models.StreamRequest, fn func(models.StreamEvent) error) error {
	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	if c.debug {
		c.logger.Printf("POST %s/responses (model: %s, input: %d, tools: %d, reasoning: %t)",
			c.baseURL, req.Model, len(req.Input), len(req.Tools), req.Reasoning != nil)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(raw)
		if resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %d - %s", models.ErrRequestRejected, resp.StatusCode, msg)
		}
		c.logger.Printf("API error %d: %s", resp.StatusCode, msg)
		return fmt.Errorf("%w: %d - %s", models.ErrRequestFailed, resp.StatusCode, msg)
	}

	return c.processStream(ctx, resp.Body, fn)
}

// processStream reads SSE "data:" lines until a terminal event or EOF.
func (c *client) processStream(ctx context.Context, r io.Reader, fn func(models.StreamEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue // skip malformed chunks
		}

		switch ev.Type {
		case "response.output_text.delta":
			if ev.Delta == "" {
				continue
			}
			if err := fn(models.StreamEvent{Type: models.EventTextDelta, Delta: ev.Delta}); err != nil {
				return err
			}
		case "response.completed":
			return fn(models.StreamEvent{Type: models.EventCompleted})
		case "error", "response.error", "response.failed":
			msg := ev.errorMessage()
			if c.debug {
				c.logger.Printf("stream error event %s: %s", ev.Type, msg)
			}
			return fn(models.StreamEvent{Type: models.EventError, Error: msg})
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read stream: %w", err)
	}
	// stream closed without a terminal event
	return fn(models.StreamEvent{Type: models.EventCompleted})
}

func (ev streamEvent) errorMessage() string {
	switch {
	case ev.Error != nil && ev.Error.Message != "":
		return ev.Error.Message
	case ev.Response != nil && ev.Response.Error != nil && ev.Response.Error.Message != "":
		return ev.Response.Error.Message
	case ev.Message != "":
		return ev.Message
	case ev.Code != "":
		return ev.Code
	}
	return "unknown error"
}

// errorMessage pulls error.message out of an API error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
