package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com"
	defaultRequestTimeout = 2 * time.Minute
	defaultPollInterval   = 10 * time.Second
)

// Client is a thin JSON client for the upstream generation API. It knows
// nothing about plans or credits; the gateway decides what to ask for.
type Client struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	pollInterval time.Duration
}

// NewClient constructs a generation API client. baseURL may be empty for
// the production endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		client:       &http.Client{Timeout: defaultRequestTimeout},
		pollInterval: defaultPollInterval,
	}
}

func (c *Client) endpoint(path string) string {
	u := c.baseURL + path
	if c.apiKey != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "key=" + url.QueryEscape(c.apiKey)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, errEncode := json.Marshal(payload)
		if errEncode != nil {
			return fmt.Errorf("genai: encode request: %w", errEncode)
		}
		body = bytes.NewReader(encoded)
	}

	req, errBuild := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if errBuild != nil {
		return fmt.Errorf("genai: build request: %w", errBuild)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("genai: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("genai: close response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("genai: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(out); errDecode != nil {
		return fmt.Errorf("genai: decode response: %w", errDecode)
	}
	return nil
}

func (c *Client) generateContent(ctx context.Context, model string, req *generateContentRequest) (*generateContentResponse, error) {
	var out generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", model)
	if errDo := c.do(ctx, http.MethodPost, path, req, &out); errDo != nil {
		return nil, errDo
	}
	return &out, nil
}

// streamGenerateContent consumes the SSE variant of the endpoint and feeds
// each chunk's text to onChunk.
func (c *Client) streamGenerateContent(ctx context.Context, model string, payload *generateContentRequest, onChunk func(string)) error {
	encoded, errEncode := json.Marshal(payload)
	if errEncode != nil {
		return fmt.Errorf("genai: encode request: %w", errEncode)
	}
	path := fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse", model)
	req, errBuild := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(encoded))
	if errBuild != nil {
		return fmt.Errorf("genai: build request: %w", errBuild)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("genai: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("genai: close response body failed")
		}
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("genai: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk generateContentResponse
		if errDecode := json.Unmarshal([]byte(data), &chunk); errDecode != nil {
			return fmt.Errorf("genai: decode stream chunk: %w", errDecode)
		}
		if text := chunk.text(); text != "" && onChunk != nil {
			onChunk(text)
		}
	}
	if errScan := scanner.Err(); errScan != nil {
		return fmt.Errorf("genai: read stream: %w", errScan)
	}
	return nil
}

func (c *Client) generateImages(ctx context.Context, prompt string) (*imagePrediction, error) {
	req := &imageRequest{
		Instances: []imageInstance{{Prompt: prompt}},
		Parameters: imageParameters{
			SampleCount:    1,
			AspectRatio:    "1:1",
			OutputMimeType: "image/jpeg",
		},
	}
	var out imageResponse
	path := fmt.Sprintf("/v1beta/models/%s:predict", modelImage)
	if errDo := c.do(ctx, http.MethodPost, path, req, &out); errDo != nil {
		return nil, errDo
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("genai: image response without predictions")
	}
	return &out.Predictions[0], nil
}

// generateVideos starts a long-running video generation and polls the
// operation until it completes, returning the download URI.
func (c *Client) generateVideos(ctx context.Context, model, prompt, resolution string) (string, error) {
	req := &videoRequest{
		Instances: []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{
			SampleCount: 1,
			Resolution:  resolution,
			AspectRatio: "16:9",
		},
	}
	var op videoOperation
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", model)
	if errDo := c.do(ctx, http.MethodPost, path, req, &op); errDo != nil {
		return "", errDo
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		var next videoOperation
		if errPoll := c.do(ctx, http.MethodGet, "/v1beta/"+op.Name, nil, &next); errPoll != nil {
			return "", errPoll
		}
		if next.Name == "" {
			next.Name = op.Name
		}
		op = next
	}

	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return "", fmt.Errorf("genai: video operation finished without a response")
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video == nil || samples[0].Video.URI == "" {
		return "", fmt.Errorf("genai: video operation finished without a sample")
	}
	return samples[0].Video.URI, nil
}

// download fetches generated media from the URI the operation handed back,
// carrying the API key the same way the upstream expects it.
func (c *Client) download(ctx context.Context, uri string) ([]byte, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	if c.apiKey != "" {
		uri += sep + "key=" + url.QueryEscape(c.apiKey)
	}
	req, errBuild := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if errBuild != nil {
		return nil, fmt.Errorf("genai: build download request: %w", errBuild)
	}
	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("genai: download failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("genai: close download body failed")
		}
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("genai: download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
