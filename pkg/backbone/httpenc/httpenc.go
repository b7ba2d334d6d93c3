// Package httpenc implements pkg/backbone's Encoder against an HTTP
// inference server exposing a hidden-states endpoint.
package httpenc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/angler/pkg/backbone"
)

const (
	// DefaultBaseURL is the default inference server URL.
	DefaultBaseURL = "http://localhost:8230"

	// DefaultTimeout bounds a single forward pass.
	DefaultTimeout = 120 * time.Second
)

// Encoder wraps a remote encoder's forward-pass API.
type Encoder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the HTTP encoder.
type Config struct {
	// BaseURL is the inference server URL (e.g., "http://localhost:8230").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model names the checkpoint the server should run.
	Model string

	// Timeout bounds a single forward pass. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// forwardRequest is the request body for the forward-pass API.
type forwardRequest struct {
	Model         string  `json:"model"`
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
	TokenTypeIDs  [][]int `json:"token_type_ids,omitempty"`
}

// forwardResponse is the response from the forward-pass API.
type forwardResponse struct {
	HiddenStates [][][]float64 `json:"hidden_states"`
}

// New creates an encoder client for a remote inference server.
func New(cfg Config) (*Encoder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Encoder{
		baseURL: baseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Forward returns the final-layer hidden states for a batch.
func (e *Encoder) Forward(ctx context.Context, in backbone.Input) (backbone.Output, error) {
	reqBody := forwardRequest{
		Model:         e.model,
		InputIDs:      in.InputIDs,
		AttentionMask: in.AttentionMask,
		TokenTypeIDs:  in.TokenTypeIDs,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return backbone.Output{}, fmt.Errorf("%w: marshaling request: %v", ErrForward, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/v1/forward", bytes.NewReader(jsonBody))
	if err != nil {
		return backbone.Output{}, fmt.Errorf("%w: creating request: %v", ErrForward, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return backbone.Output{}, fmt.Errorf("%w: sending request: %v", ErrForward, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return backbone.Output{}, fmt.Errorf("%w: server returned status %d: %s", ErrForward, resp.StatusCode, string(body))
	}

	var fwdResp forwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&fwdResp); err != nil {
		return backbone.Output{}, fmt.Errorf("%w: decoding response: %v", ErrForward, err)
	}

	if len(fwdResp.HiddenStates) != len(in.InputIDs) {
		return backbone.Output{}, fmt.Errorf("%w: got %d rows for %d inputs", ErrForward, len(fwdResp.HiddenStates), len(in.InputIDs))
	}

	return backbone.Output{HiddenStates: fwdResp.HiddenStates}, nil
}

// stepRequest is the request body for the optimizer-step API.
type stepRequest struct {
	Model string  `json:"model"`
	Loss  float64 `json:"loss"`
}

// Step asks the inference server to apply one optimizer update for the
// batch it last ran forward, using the externally computed loss.
func (e *Encoder) Step(ctx context.Context, loss float64) error {
	jsonBody, err := json.Marshal(stepRequest{Model: e.model, Loss: loss})
	if err != nil {
		return fmt.Errorf("%w: marshaling request: %v", ErrStep, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/v1/step", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrStep, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending request: %v", ErrStep, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: server returned status %d: %s", ErrStep, resp.StatusCode, string(body))
	}

	return nil
}

// Close releases resources held by the encoder.
func (e *Encoder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

var _ backbone.Encoder = (*Encoder)(nil)
