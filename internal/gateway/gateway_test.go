package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(test *testing.T, handler http.HandlerFunc) *Client {
	test.Helper()
	server := httptest.NewServer(handler)
	test.Cleanup(server.Close)
	client, err := NewClient(Config{APIKey: "secret", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	if err != nil {
		test.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(test *testing.T) {
	test.Parallel()
	if _, err := NewClient(Config{APIKey: "  "}); !errors.Is(err, ErrMissingAPIKey) {
		test.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateImagesSendsPredictRequest(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1beta/models/"+DefaultGenerateModel+":predict" {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		if request.Header.Get(headerAPIKey) != "secret" {
			test.Errorf("missing api key header")
		}
		var payload predictRequest
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			test.Errorf("decode: %v", err)
		}
		if payload.Parameters.SampleCount != MaxImagesPerRequest || payload.Instances[0].Prompt != "a red fox" {
			test.Errorf("unexpected payload %+v", payload)
		}
		_, _ = io.WriteString(writer, `{"predictions":[{"bytesBase64Encoded":"AAA","mimeType":"image/png"},{"raiFilteredReason":"blocked"},{"bytesBase64Encoded":"BBB"}]}`)
	})

	images, err := client.GenerateImages(context.Background(), "a red fox", 9)
	if err != nil {
		test.Fatalf("GenerateImages: %v", err)
	}
	if len(images) != 2 || images[0].Base64 != "AAA" || images[1].MimeType != outputMimeType {
		test.Fatalf("unexpected images %+v", images)
	}
}

func TestGenerateImagesWithoutPredictionsFails(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(writer, `{"predictions":[]}`)
	})
	if _, err := client.GenerateImages(context.Background(), "empty", 1); !errors.Is(err, ErrNoImages) {
		test.Fatalf("expected ErrNoImages, got %v", err)
	}
}

func TestEditImageReturnsFirstInlinePart(test *testing.T) {
	test.Parallel()
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		if !strings.HasSuffix(request.URL.Path, DefaultEditModel+":generateContent") {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		var payload contentRequest
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			test.Errorf("decode: %v", err)
		}
		if len(payload.Contents) != 1 || payload.Contents[0].Parts[0].InlineData == nil || payload.Contents[0].Parts[1].Text != "add a hat" {
			test.Errorf("unexpected payload %+v", payload)
		}
		_, _ = io.WriteString(writer, `{"candidates":[{"content":{"parts":[{"text":"here you go"},{"inlineData":{"mimeType":"image/jpeg","data":"EDITED"}}]}}]}`)
	})

	edited, err := client.EditImage(context.Background(), "add a hat", Image{Base64: "SRC", MimeType: "image/png"})
	if err != nil {
		test.Fatalf("EditImage: %v", err)
	}
	if edited.Base64 != "EDITED" || edited.MimeType != "image/jpeg" {
		test.Fatalf("unexpected image %+v", edited)
	}
}

func TestEditImageValidatesSource(test *testing.T) {
	test.Parallel()
	client, err := NewClient(Config{APIKey: "secret"})
	if err != nil {
		test.Fatalf("NewClient: %v", err)
	}
	if _, err := client.EditImage(context.Background(), "x", Image{Base64: "AAA", MimeType: "text/plain"}); !errors.Is(err, ErrInvalidImageData) {
		test.Fatalf("expected ErrInvalidImageData, got %v", err)
	}
}

func TestUpstreamErrorsAreClassified(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "client error", status: http.StatusBadRequest, want: ErrRejectedRequest},
		{name: "server error", status: http.StatusServiceUnavailable, want: ErrUpstreamFailure},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			client := newTestClient(test, func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(testCase.status)
				_, _ = io.WriteString(writer, `{"error":{"message":"prompt blocked"}}`)
			})
			_, err := client.GenerateImages(context.Background(), "x", 1)
			if !errors.Is(err, testCase.want) || !strings.Contains(err.Error(), "prompt blocked") {
				test.Fatalf("expected %v with upstream message, got %v", testCase.want, err)
			}
		})
	}
}

func TestGenerateImagesHonorsContextDeadline(test *testing.T) {
	test.Parallel()
	release := make(chan struct{})
	client := newTestClient(test, func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-release:
		}
	})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.GenerateImages(ctx, "slow", 1); !errors.Is(err, context.DeadlineExceeded) {
		test.Fatalf("expected deadline exceeded, got %v", err)
	}
}
