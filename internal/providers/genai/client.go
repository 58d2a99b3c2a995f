package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
)

// SleepFunc suspends the caller for the given duration, honoring context
// cancellation. Injectable so the video poll loop is testable without
// real waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey string
	// APIKeyFunc, when set, is consulted per request instead of APIKey, so a
	// key replaced at runtime takes effect without rebuilding the client.
	APIKeyFunc   func(ctx context.Context) (string, error)
	BaseURL      string
	ImageModel   string
	VideoModel   string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       *infra.Logger
	Sleep        SleepFunc
}

// Client is a thin facade over the Gemini generative media API: one
// synchronous image generation call and one asynchronous video generation
// call driven by a fixed-interval operation poll.
type Client struct {
	apiKey       string
	apiKeyFunc   func(ctx context.Context) (string, error)
	baseURL      string
	imageModel   string
	videoModel   string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *infra.Logger
	sleep        SleepFunc
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	ImageSize   string
}

// ImageResult is the first inline payload of a successful image response.
type ImageResult struct {
	Data     []byte
	MimeType string
}

// VideoRequest describes one image-seeded video generation job.
type VideoRequest struct {
	Prompt        string
	ImageBytes    []byte
	ImageMimeType string
	AspectRatio   string
}

// VideoResult is the downloaded content of a completed video job.
type VideoResult struct {
	Data     []byte
	MimeType string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiVideoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type geminiVideoInstance struct {
	Prompt string            `json:"prompt"`
	Image  *geminiVideoImage `json:"image,omitempty"`
}

type geminiVideoParameters struct {
	AspectRatio    string `json:"aspectRatio,omitempty"`
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
}

type geminiPredictRequest struct {
	Instances  []geminiVideoInstance `json:"instances"`
	Parameters geminiVideoParameters `json:"parameters"`
}

type geminiVideoRef struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

type geminiGeneratedSample struct {
	Video *geminiVideoRef `json:"video,omitempty"`
}

type geminiGenerateVideoResponse struct {
	GeneratedSamples []geminiGeneratedSample `json:"generatedSamples,omitempty"`
}

type geminiOperationResult struct {
	GenerateVideoResponse *geminiGenerateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type geminiOperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type geminiOperation struct {
	Name     string                 `json:"name,omitempty"`
	Done     bool                   `json:"done,omitempty"`
	Error    *geminiOperationError  `json:"error,omitempty"`
	Response *geminiOperationResult `json:"response,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; one without a global timeout will be created, since video
// generation requests legitimately run for minutes.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}

	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.1-generate-preview"
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		apiKeyFunc:   opts.APIKeyFunc,
		baseURL:      baseURL,
		imageModel:   imageModel,
		videoModel:   videoModel,
		pollInterval: pollInterval,
		httpClient:   client,
		logger:       logger,
		sleep:        sleep,
	}, nil
}

// ImageModel returns the configured image model identifier.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// VideoModel returns the configured video model identifier.
func (c *Client) VideoModel() string {
	return c.videoModel
}

// GenerateImage issues one synchronous generation request and returns the
// first inline payload found in the response candidates.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig: &geminiImageConfig{
				AspectRatio: req.AspectRatio,
				ImageSize:   req.ImageSize,
			},
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			c.logger.Debug().
				Str("model", c.imageModel).
				Int("bytes", len(data)).
				Msg("genai: generated image")
			return &ImageResult{Data: data, MimeType: mime}, nil
		}
	}

	return nil, domain.ErrNoImageReturned
}

// GenerateVideo submits an asynchronous video job seeded with the given image
// and polls the returned operation at a fixed interval until it completes.
// The loop has no iteration bound; cancel the context to abort it.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	payload := geminiPredictRequest{
		Instances: []geminiVideoInstance{
			{
				Prompt: req.Prompt,
				Image: &geminiVideoImage{
					BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.ImageBytes),
					MimeType:           req.ImageMimeType,
				},
			},
		},
		Parameters: geminiVideoParameters{
			AspectRatio:    req.AspectRatio,
			NumberOfVideos: 1,
			Resolution:     "720p",
		},
	}

	var op geminiOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, &domain.ProviderError{Message: "no operation handle returned"}
	}

	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Msg("genai: video job submitted")

	for !op.Done {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		var next geminiOperation
		if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &next); err != nil {
			return nil, err
		}
		next.Name = op.Name
		op = next
	}

	if op.Error != nil {
		return nil, &domain.ProviderError{Message: op.Error.Message}
	}

	uri := firstVideoURI(op.Response)
	if uri == "" {
		return nil, domain.ErrNoVideoReturned
	}

	data, mime, err := c.downloadFile(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	if mime == "" {
		mime = "video/mp4"
	}

	c.logger.Debug().
		Str("model", c.videoModel).
		Str("operation", op.Name).
		Int("bytes", len(data)).
		Msg("genai: video downloaded")

	return &VideoResult{Data: data, MimeType: mime}, nil
}

func firstVideoURI(result *geminiOperationResult) string {
	if result == nil || result.GenerateVideoResponse == nil {
		return ""
	}
	for _, sample := range result.GenerateVideoResponse.GeneratedSamples {
		if sample.Video != nil && sample.Video.URI != "" {
			return sample.Video.URI
		}
	}
	return ""
}

func (c *Client) key(ctx context.Context) (string, error) {
	if c.apiKeyFunc != nil {
		key, err := c.apiKeyFunc(ctx)
		if err != nil {
			return "", fmt.Errorf("resolve api key: %w", err)
		}
		return strings.TrimSpace(key), nil
	}
	return c.apiKey, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	apiKey, err := c.key(ctx)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	if apiKey != "" {
		q.Set("key", apiKey)
	}
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ProviderError{Message: fmt.Sprintf("invoke gemini: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return &domain.ProviderError{Message: apiErr.Error.Message}
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return &domain.ProviderError{Message: fmt.Sprintf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))}
		}
		return &domain.ProviderError{Message: fmt.Sprintf("gemini status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func (c *Client) downloadFile(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	apiKey, err := c.key(ctx)
	if err != nil {
		return nil, "", err
	}
	if apiKey != "" {
		q := req.URL.Query()
		q.Set("key", apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("download file status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

// sleepContext is the default SleepFunc. The timer is stopped on every exit
// path so the poll loop accumulates nothing across iterations.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
