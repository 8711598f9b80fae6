// Package voice is a client for the Retell voice-agent platform. It covers
// the small surface the engine needs: provisioning agent/LLM pairs, rewriting
// an LLM's prompt, creating web calls and fetching call transcripts.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Platform defines the voice platform operations used by the engine.
type Platform interface {
	CreateLLM(ctx context.Context, prompt string) (string, error)
	CreateAgent(ctx context.Context, llmID, name string) (string, error)
	UpdateLLMPrompt(ctx context.Context, llmID, prompt string) error
	CreateWebCall(ctx context.Context, agentID string) (*WebCall, error)
	GetCall(ctx context.Context, callID string) (*Call, error)
}

// Client talks to the Retell REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	logger     *zap.Logger
}

// Config holds configuration for creating a voice platform client.
type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string // platform voice for newly provisioned agents
}

// WebCall is a freshly created browser call: the caller connects with the
// returned access token.
type WebCall struct {
	CallID      string `json:"call_id"`
	AccessToken string `json:"access_token"`
	AgentID     string `json:"agent_id"`
}

// Call is a completed or in-progress call record.
type Call struct {
	CallID     string `json:"call_id"`
	AgentID    string `json:"agent_id"`
	CallStatus string `json:"call_status"`
	Transcript string `json:"transcript"`
}

// NewClient creates a new voice platform client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.retellai.com"
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		logger:     logger.Named("voice"),
	}, nil
}

var _ Platform = (*Client)(nil)

// CreateLLM creates a prompt resource and returns its id.
func (c *Client) CreateLLM(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"general_prompt": prompt,
	}

	var resp struct {
		LLMID string `json:"llm_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-retell-llm", body, &resp); err != nil {
		return "", fmt.Errorf("create llm: %w", err)
	}
	if resp.LLMID == "" {
		return "", fmt.Errorf("create llm: empty llm_id in response")
	}

	c.logger.Info("Created voice LLM", zap.String("llm_id", resp.LLMID))
	return resp.LLMID, nil
}

// CreateAgent creates an agent bound to the given LLM and returns its id.
func (c *Client) CreateAgent(ctx context.Context, llmID, name string) (string, error) {
	body := map[string]any{
		"agent_name": name,
		"voice_id":   c.voiceID,
		"response_engine": map[string]any{
			"type":   "retell-llm",
			"llm_id": llmID,
		},
	}

	var resp struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-agent", body, &resp); err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}
	if resp.AgentID == "" {
		return "", fmt.Errorf("create agent: empty agent_id in response")
	}

	c.logger.Info("Created voice agent",
		zap.String("agent_id", resp.AgentID),
		zap.String("llm_id", llmID))
	return resp.AgentID, nil
}

// UpdateLLMPrompt rewrites the prompt text of an existing LLM resource.
func (c *Client) UpdateLLMPrompt(ctx context.Context, llmID, prompt string) error {
	body := map[string]any{
		"general_prompt": prompt,
	}

	if err := c.do(ctx, http.MethodPatch, "/update-retell-llm/"+llmID, body, nil); err != nil {
		return fmt.Errorf("update llm prompt: %w", err)
	}

	c.logger.Debug("Updated voice LLM prompt",
		zap.String("llm_id", llmID),
		zap.Int("prompt_len", len(prompt)))
	return nil
}

// CreateWebCall registers a browser call for the agent and returns the
// access token the frontend connects with.
func (c *Client) CreateWebCall(ctx context.Context, agentID string) (*WebCall, error) {
	body := map[string]any{
		"agent_id": agentID,
	}

	var resp WebCall
	if err := c.do(ctx, http.MethodPost, "/v2/create-web-call", body, &resp); err != nil {
		return nil, fmt.Errorf("create web call: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("create web call: empty access_token in response")
	}

	return &resp, nil
}

// GetCall fetches a call record, including its transcript once the call has
// ended.
func (c *Client) GetCall(ctx context.Context, callID string) (*Call, error) {
	var resp Call
	if err := c.do(ctx, http.MethodGet, "/v2/get-call/"+callID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get call: %w", err)
	}
	return &resp, nil
}

// do executes one API request, encoding body as JSON and decoding the
// response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
