package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Google generative language REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls a Gemini-style models/{model}:generateContent REST endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a REST generator. An empty baseURL selects
// DefaultBaseURL; timeout bounds each generation call end to end.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Wire types for the generateContent request and response bodies.
type (
	wirePart struct {
		Text       string          `json:"text,omitempty"`
		InlineData *wireInlineData `json:"inlineData,omitempty"`
	}
	wireInlineData struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	}
	wireContent struct {
		Parts []wirePart `json:"parts"`
	}
	wireGenerationConfig struct {
		Temperature      *float64 `json:"temperature,omitempty"`
		ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	}
	wireRequest struct {
		Contents         []wireContent         `json:"contents"`
		GenerationConfig *wireGenerationConfig `json:"generationConfig,omitempty"`
	}
	wireResponse struct {
		Candidates []struct {
			Content wireContent `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
)

// Generate performs one generateContent call and validates the response
// shape into the strict Part contract.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	parts := []wirePart{{Text: req.Prompt}}
	for _, img := range req.Images {
		mime := img.MIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, wirePart{InlineData: &wireInlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	body := wireRequest{Contents: []wireContent{{Parts: parts}}}
	if req.JSONOutput || req.Temperature > 0 {
		gc := &wireGenerationConfig{}
		if req.JSONOutput {
			gc.ResponseMIMEType = "application/json"
		}
		if req.Temperature > 0 {
			t := req.Temperature
			gc.Temperature = &t
		}
		body.GenerationConfig = gc
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("generate returned HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("malformed generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if wire.Error != nil && wire.Error.Message != "" {
			return nil, fmt.Errorf("generate returned HTTP %d: %s", resp.StatusCode, wire.Error.Message)
		}
		return nil, fmt.Errorf("generate returned HTTP %d", resp.StatusCode)
	}

	if len(wire.Candidates) == 0 {
		return nil, fmt.Errorf("generate response for model %s has no candidates", req.Model)
	}

	out := &Response{}
	for _, p := range wire.Candidates[0].Content.Parts {
		switch {
		case p.InlineData != nil:
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("undecodable inline image in response: %w", err)
			}
			out.Parts = append(out.Parts, Part{Image: data, MIME: p.InlineData.MIMEType})
		case p.Text != "":
			out.Parts = append(out.Parts, Part{Text: p.Text})
		}
	}

	if len(out.Parts) == 0 {
		return nil, ErrNoContent
	}
	return out, nil
}
