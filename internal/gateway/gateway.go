// Package gateway talks to the hosted image generation models.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultGenerateModel = "imagen-4.0-generate-001"
	DefaultEditModel     = "gemini-2.5-flash-image"
	MaxImagesPerRequest  = 4

	headerAPIKey       = "x-goog-api-key"
	headerContentType  = "Content-Type"
	contentTypeJSON    = "application/json"
	outputMimeType     = "image/png"
	aspectRatioSquare  = "1:1"
	modalityImage      = "IMAGE"
	pathModelsTemplate = "%s/v1beta/models/%s:%s"
	methodPredict      = "predict"
	methodGenerate     = "generateContent"
	maxErrorBodyBytes  = 4096
	maxResponseBytes   = 64 << 20
)

var (
	ErrMissingAPIKey    = errors.New("gateway: api key is required")
	ErrNoImages         = errors.New("gateway: no images were generated")
	ErrRejectedRequest  = errors.New("gateway: request rejected")
	ErrUpstreamFailure  = errors.New("gateway: upstream failure")
	ErrInvalidImageData = errors.New("gateway: invalid image data")
)

// Image is a single generated or edited picture.
type Image struct {
	Base64   string
	MimeType string
}

// Generator is the GenerationGateway contract: any call may fail or time out.
type Generator interface {
	GenerateImages(ctx context.Context, prompt string, count int) ([]Image, error)
	EditImage(ctx context.Context, prompt string, source Image) (Image, error)
}

// Config configures a Client.
type Config struct {
	APIKey        string
	BaseURL       string
	GenerateModel string
	EditModel     string
	HTTPClient    *http.Client
}

// Client calls Imagen for text-to-image and Gemini for image edits over REST.
type Client struct {
	apiKey        string
	baseURL       string
	generateModel string
	editModel     string
	httpClient    *http.Client
}

// NewClient validates cfg and applies defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client := &Client{
		apiKey:        strings.TrimSpace(cfg.APIKey),
		baseURL:       strings.TrimRight(defaultIfEmpty(cfg.BaseURL, DefaultBaseURL), "/"),
		generateModel: defaultIfEmpty(cfg.GenerateModel, DefaultGenerateModel),
		editModel:     defaultIfEmpty(cfg.EditModel, DefaultEditModel),
		httpClient:    cfg.HTTPClient,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return client, nil
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount   int           `json:"sampleCount"`
	AspectRatio   string        `json:"aspectRatio"`
	OutputOptions outputOptions `json:"outputOptions"`
}

type outputOptions struct {
	MimeType string `json:"mimeType"`
}

// GenerateImages asks the generate model for count images (clamped to 1..4).
func (client *Client) GenerateImages(ctx context.Context, prompt string, count int) ([]Image, error) {
	payload := predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount:   clampCount(count),
			AspectRatio:   aspectRatioSquare,
			OutputOptions: outputOptions{MimeType: outputMimeType},
		},
	}
	body, err := client.post(ctx, client.generateModel, methodPredict, payload)
	if err != nil {
		return nil, err
	}
	var images []Image
	gjson.GetBytes(body, "predictions").ForEach(func(_, prediction gjson.Result) bool {
		data := prediction.Get("bytesBase64Encoded").String()
		if data == "" {
			return true
		}
		images = append(images, Image{
			Base64:   data,
			MimeType: defaultIfEmpty(prediction.Get("mimeType").String(), outputMimeType),
		})
		return true
	})
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

type contentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

// EditImage sends source plus the instruction to the edit model and returns the first image part.
func (client *Client) EditImage(ctx context.Context, prompt string, source Image) (Image, error) {
	if source.Base64 == "" || !strings.HasPrefix(source.MimeType, "image/") {
		return Image{}, ErrInvalidImageData
	}
	payload := contentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: source.MimeType, Data: source.Base64}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{ResponseModalities: []string{modalityImage}},
	}
	body, err := client.post(ctx, client.editModel, methodGenerate, payload)
	if err != nil {
		return Image{}, err
	}
	var edited Image
	gjson.GetBytes(body, "candidates.0.content.parts").ForEach(func(_, candidatePart gjson.Result) bool {
		data := candidatePart.Get("inlineData.data").String()
		if data == "" {
			return true
		}
		edited = Image{
			Base64:   data,
			MimeType: defaultIfEmpty(candidatePart.Get("inlineData.mimeType").String(), outputMimeType),
		}
		return false
	})
	if edited.Base64 == "" {
		return Image{}, ErrNoImages
	}
	return edited, nil
}

func (client *Client) post(ctx context.Context, model string, method string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode request: %w", err)
	}
	endpoint := fmt.Sprintf(pathModelsTemplate, client.baseURL, model, method)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	request.Header.Set(headerContentType, contentTypeJSON)
	request.Header.Set(headerAPIKey, client.apiKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", model, method, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		message := gjson.GetBytes(detail, "error.message").String()
		if message == "" {
			message = strings.TrimSpace(string(detail))
		}
		sentinel := ErrUpstreamFailure
		if response.StatusCode < http.StatusInternalServerError {
			sentinel = ErrRejectedRequest
		}
		return nil, fmt.Errorf("%w: status %d: %s", sentinel, response.StatusCode, message)
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not json", ErrUpstreamFailure)
	}
	return body, nil
}

func clampCount(count int) int {
	if count < 1 {
		return 1
	}
	if count > MaxImagesPerRequest {
		return MaxImagesPerRequest
	}
	return count
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
