// Package studio prices generation requests and runs them under credit billing.
package studio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/pixelcredits/internal/gateway"
	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
)

const (
	negativePromptSeparator = ". Avoid: "
	imageMimePrefix         = "image/"
	defaultCreditsPerImage  = 1
)

var (
	ErrInvalidPrompt = fmt.Errorf("%w: prompt is required", credits.ErrValidation)
	ErrInvalidCount  = fmt.Errorf("%w: image count must be between 1 and %d", credits.ErrValidation, gateway.MaxImagesPerRequest)
	ErrInvalidImage  = fmt.Errorf("%w: image must be non-empty base64 with an image/* mime type", credits.ErrValidation)
	ErrInvalidConfig = errors.New("studio: invalid configuration")
)

// Biller charges an account around a fallible operation.
type Biller interface {
	RunGenerationWithBilling(ctx context.Context, accountID credits.AccountID, cost credits.PositiveCredits, operation func(ctx context.Context) error) (credits.Account, error)
}

// GenerateRequest asks for count images from a text prompt.
type GenerateRequest struct {
	Prompt         string
	NegativePrompt string
	Count          int
}

// EditRequest asks for one edited version of Image.
type EditRequest struct {
	Prompt string
	Image  gateway.Image
}

// Result carries the produced images and the balance after billing.
type Result struct {
	Images  []gateway.Image
	Account credits.Account
	Cost    credits.PositiveCredits
}

// Studio is the generation front door used by the HTTP layer.
type Studio struct {
	biller          Biller
	generator       gateway.Generator
	creditsPerImage credits.PositiveCredits
}

// New wires a Studio. creditsPerImage <= 0 selects the default price of one credit.
func New(biller Biller, generator gateway.Generator, creditsPerImage int64) (*Studio, error) {
	if biller == nil || generator == nil {
		return nil, fmt.Errorf("%w: biller and generator are required", ErrInvalidConfig)
	}
	if creditsPerImage <= 0 {
		creditsPerImage = defaultCreditsPerImage
	}
	price, err := credits.NewPositiveCredits(creditsPerImage)
	if err != nil {
		return nil, err
	}
	return &Studio{biller: biller, generator: generator, creditsPerImage: price}, nil
}

// GenerationCost returns the price of count text-to-image results.
func (studio *Studio) GenerationCost(count int) (credits.PositiveCredits, error) {
	if count < 1 || count > gateway.MaxImagesPerRequest {
		return 0, ErrInvalidCount
	}
	return credits.NewPositiveCredits(studio.creditsPerImage.Int64() * int64(count))
}

// EditCost returns the price of one edit.
func (studio *Studio) EditCost() credits.PositiveCredits {
	return studio.creditsPerImage
}

// Generate validates request, debits its cost and calls the gateway. A failed call is refunded.
func (studio *Studio) Generate(ctx context.Context, accountID credits.AccountID, request GenerateRequest) (Result, error) {
	prompt, err := ComposePrompt(request.Prompt, request.NegativePrompt)
	if err != nil {
		return Result{}, err
	}
	cost, err := studio.GenerationCost(request.Count)
	if err != nil {
		return Result{}, err
	}
	var images []gateway.Image
	account, err := studio.biller.RunGenerationWithBilling(ctx, accountID, cost, func(operationContext context.Context) error {
		generated, generateErr := studio.generator.GenerateImages(operationContext, prompt, request.Count)
		if generateErr != nil {
			return generateErr
		}
		images = generated
		return nil
	})
	if err != nil {
		return Result{Account: account}, err
	}
	return Result{Images: images, Account: account, Cost: cost}, nil
}

// Edit validates request, debits the edit price and calls the gateway. A failed call is refunded.
func (studio *Studio) Edit(ctx context.Context, accountID credits.AccountID, request EditRequest) (Result, error) {
	prompt := strings.TrimSpace(request.Prompt)
	if prompt == "" {
		return Result{}, ErrInvalidPrompt
	}
	if err := validateImage(request.Image); err != nil {
		return Result{}, err
	}
	cost := studio.EditCost()
	var edited gateway.Image
	account, err := studio.biller.RunGenerationWithBilling(ctx, accountID, cost, func(operationContext context.Context) error {
		image, editErr := studio.generator.EditImage(operationContext, prompt, request.Image)
		if editErr != nil {
			return editErr
		}
		edited = image
		return nil
	})
	if err != nil {
		return Result{Account: account}, err
	}
	return Result{Images: []gateway.Image{edited}, Account: account, Cost: cost}, nil
}

// ComposePrompt trims prompt and appends the negative prompt when present.
func ComposePrompt(prompt string, negativePrompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrInvalidPrompt
	}
	negative := strings.TrimSpace(negativePrompt)
	if negative == "" {
		return trimmed, nil
	}
	return trimmed + negativePromptSeparator + negative, nil
}

func validateImage(image gateway.Image) error {
	if !strings.HasPrefix(strings.ToLower(image.MimeType), imageMimePrefix) || image.Base64 == "" {
		return ErrInvalidImage
	}
	if _, err := base64.StdEncoding.DecodeString(image.Base64); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return nil
}
