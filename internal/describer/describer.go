// Package describer turns an image plus contextual metadata into an
// English alt-text string, via one of a small set of strategy variants
// selected at startup.
package describer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	"github.com/stelladora/alt-text-pipeline/internal/normalizer"
	"github.com/stelladora/alt-text-pipeline/internal/prompts"
	"github.com/stelladora/alt-text-pipeline/internal/vision"
	internalhttp "github.com/stelladora/alt-text-pipeline/pkg/internal/http"
)

const callTimeout = 60 * time.Second

// Result is what a describer variant returns for one image.
type Result struct {
	AltEn string

	// PromptTokens/CompletionTokens are 0 when the variant doesn't report
	// usage (e.g. the caption+tags fallback).
	PromptTokens     int
	CompletionTokens int
}

// Describer produces an English alt-text description of an image.
type Describer interface {
	Describe(ctx context.Context, blobName, imageRef string, doc metadata.Document, facts metadata.Facts, hints vision.Hints) (Result, error)
}

type tokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

const cognitiveServicesAudience = "https://cognitiveservices.azure.com/.default"

// ChatCompletion is the primary variant: a multimodal chat-completion
// call against an Azure OpenAI-compatible deployment.
type ChatCompletion struct {
	http       *internalhttp.Client
	deployment string
	apiVersion string
	tokens     tokenSource
	maxTokens  int
}

// NewChatCompletion builds the primary multimodal-chat-completion
// describer variant. maxTokens should be 300 for slm/phi4 deployments and
// 500 for llm deployments, per the wire-protocol table.
func NewChatCompletion(endpoint, deployment, apiVersion string, tokens tokenSource, maxTokens int) *ChatCompletion {
	return &ChatCompletion{
		http:       internalhttp.NewClient(internalhttp.Config{BaseURL: endpoint, Timeout: callTimeout}),
		deployment: deployment,
		apiVersion: apiVersion,
		tokens:     tokens,
		maxTokens:  maxTokens,
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type imageURLPart struct {
	Type     string `json:"type"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Describe implements Describer for the multimodal chat-completion variant.
func (c *ChatCompletion) Describe(ctx context.Context, blobName, imageRef string, doc metadata.Document, facts metadata.Facts, hints vision.Hints) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	token, err := c.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return Result{}, fmt.Errorf("describer token: %w", err)
	}

	systemInstr := prompts.SystemInstruction(doc.Source)
	userInstr := prompts.UserInstruction(blobName, doc, facts, hints)

	imgPart := imageURLPart{Type: "image_url"}
	imgPart.ImageURL.URL = imageRef
	txtPart := textPart{Type: "text", Text: userInstr}

	body := map[string]interface{}{
		"messages": []chatMessage{
			{Role: "system", Content: systemInstr},
			{Role: "user", Content: []interface{}{imgPart, txtPart}},
		},
		"temperature":       0.3,
		"max_tokens":        c.maxTokens,
		"top_p":             0.95,
		"frequency_penalty": 0,
		"presence_penalty":  0,
	}

	path := fmt.Sprintf("/openai/deployments/%s/chat/completions", c.deployment)
	resp, err := c.http.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  map[string]string{"api-version": c.apiVersion},
		Body:   body,
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
		},
	})
	if err != nil {
		return Result{AltEn: ""}, nil
	}
	if resp.StatusCode >= 300 {
		return Result{AltEn: ""}, nil
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil || len(decoded.Choices) == 0 {
		return Result{AltEn: ""}, nil
	}

	altEn := normalizer.Normalize(decoded.Choices[0].Message.Content)
	return Result{
		AltEn:            altEn,
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
	}, nil
}

// CaptionTags is the fallback variant: a dedicated vision caption+tags
// API, used when multimodal chat-completion endpoints are unavailable.
type CaptionTags struct {
	http   *internalhttp.Client
	tokens tokenSource
}

// NewCaptionTags builds the caption+tags fallback describer variant.
func NewCaptionTags(endpoint string, tokens tokenSource) *CaptionTags {
	return &CaptionTags{
		http:   internalhttp.NewClient(internalhttp.Config{BaseURL: endpoint, Timeout: callTimeout}),
		tokens: tokens,
	}
}

type captionResponse struct {
	Caption struct {
		Text string `json:"text"`
	} `json:"description"`
}

type tagsResponse struct {
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Describe implements Describer for the caption+tags variant.
func (c *CaptionTags) Describe(ctx context.Context, blobName, imageRef string, doc metadata.Document, facts metadata.Facts, hints vision.Hints) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	token, err := c.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return Result{}, fmt.Errorf("describer token: %w", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	body := map[string]interface{}{"url": imageRef}

	var caption captionResponse
	resp, err := c.http.Do(ctx, internalhttp.Request{Method: http.MethodPost, Path: "/vision/v3.2/describe", Body: body, Headers: headers})
	if err != nil || resp.StatusCode >= 300 {
		return Result{AltEn: ""}, nil
	}
	json.Unmarshal(resp.Body, &caption)

	var tags tagsResponse
	resp2, err := c.http.Do(ctx, internalhttp.Request{Method: http.MethodPost, Path: "/vision/v3.2/tag", Body: body, Headers: headers})
	if err == nil && resp2.StatusCode < 300 {
		json.Unmarshal(resp2.Body, &tags)
	}

	alt := composeCaptionAlt(doc.Brand, doc.Model, caption.Caption.Text)
	return Result{AltEn: alt}, nil
}

func composeCaptionAlt(brand, model, caption string) string {
	parts := []string{}
	if brand != "" {
		parts = append(parts, brand)
	}
	if model != "" {
		parts = append(parts, model)
	}
	if caption != "" {
		parts = append(parts, caption)
	}
	alt := strings.Join(parts, " ")
	if len(alt) > 125 {
		alt = alt[:125] + "..."
	}
	return alt
}
