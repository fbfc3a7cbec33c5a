package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const logoPromptFrame = "A modern, minimalist vector logo. Description: %s. " +
	"The logo should be on a solid white background, simple, iconic, and easily recognizable. No text."

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	ChatModel  string
	HTTPClient *http.Client
	Logger     *slog.Logger

	// MaxHistory caps the messages a chat replays per turn. Zero means
	// unlimited.
	MaxHistory int
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	chatModel  string
	maxHistory int
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "gemini-2.5-pro"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = textModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  textModel,
		imageModel: imageModel,
		chatModel:  chatModel,
		maxHistory: opts.MaxHistory,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// GenerateStructured submits a prompt constrained by a response schema and
// returns the raw JSON document the model produced. Structural validation
// beyond JSON well-formedness is the caller's job.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is empty")
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if !json.Valid([]byte(text)) {
		c.logger.Error("structured response is not valid JSON", "len", len(text))
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrMalformedResponse)
	}
	return json.RawMessage(text), nil
}

// GenerateImage returns a single generated image as a data URI. When
// logoStyle is set the prompt is wrapped in the fixed vector-logo frame.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string, logoStyle bool) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}
	if !ValidAspectRatio(aspectRatio) {
		return "", fmt.Errorf("unsupported aspect ratio %q", aspectRatio)
	}

	if logoStyle {
		prompt = fmt.Sprintf(logoPromptFrame, prompt)
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: aspectRatio},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil {
		if isUnknownFieldError(err, "imageConfig") {
			req.GenerationConfig.ImageConfig = nil
			resp, err = c.generateContent(ctx, c.imageModel, req)
		}
	}
	if err != nil {
		return "", err
	}
	if len(resp.Images) == 0 {
		return "", fmt.Errorf("%w: no image in response", ErrGenerationFailure)
	}
	return resp.Images[0], nil
}

// GenerateText returns freeform markdown-flavored text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: 0.7},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Converse runs one turn-based conversation round over the supplied history.
func (c *Client) Converse(ctx context.Context, systemInstruction string, history []Message, message string) (string, error) {
	req := generateContentRequest{
		Contents:         buildContents(history, message),
		GenerationConfig: generationConfig{Temperature: 0.7},
	}
	if strings.TrimSpace(systemInstruction) != "" {
		req.SystemInstruction = &content{Role: "user", Parts: []part{{Text: systemInstruction}}}
	}

	resp, err := c.generateContent(ctx, c.chatModel, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func buildContents(history []Message, message string) []content {
	contents := make([]content, 0, len(history)+1)
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Text}},
		})
	}
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: message}},
	})
	return contents
}

type response struct {
	Text   string
	Images []string
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (response, error) {
	if c.httpClient == nil {
		return response{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return response{}, fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return response{}, fmt.Errorf("%w: decode response: %v", ErrMalformedResponse, err)
	}

	text, images := extractParts(decoded)
	return response{Text: text, Images: images}, nil
}

func extractParts(resp generateContentResponse) (string, []string) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var textBuilder strings.Builder
	var images []string

	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			images = append(images, fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data))
		}
	}

	return textBuilder.String(), images
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ResponseMimeType   string       `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema      `json:"responseSchema,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}
