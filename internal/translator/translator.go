// Package translator turns an English alt-text string into a mapping of
// language-code to translated text, via one of two strategy variants.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalhttp "github.com/stelladora/alt-text-pipeline/pkg/internal/http"
	"golang.org/x/time/rate"
)

const (
	callTimeoutMin = 10 * time.Second
	callTimeoutMax = 30 * time.Second
)

const cognitiveServicesAudience = "https://cognitiveservices.azure.com/.default"

type tokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

// Translator translates text into a set of target languages.
type Translator interface {
	Translate(ctx context.Context, text string, langs []string) (map[string]string, error)
}

// aliasMap maps non-standard two-letter codes the metadata sidecar may
// carry to the codes the translation API expects.
var aliasMap = map[string]string{
	"jp": "ja",
	"cn": "zh-Hans",
	"tw": "zh-Hant",
	"kr": "ko",
	"br": "pt",
	"cz": "cs",
	"dk": "da",
	"gr": "el",
	"se": "sv",
	"no": "nb",
}

func mapAlias(code string) string {
	if mapped, ok := aliasMap[code]; ok {
		return mapped
	}
	return code
}

// DedicatedAPI is the primary variant: calls a dedicated translation
// service, rate-limited and issued sequentially per language.
type DedicatedAPI struct {
	http     *internalhttp.Client
	tokens   tokenSource
	region   string
	limiter  *rate.Limiter
	endpoint string
}

// NewDedicatedAPI builds the primary dedicated-translation-API variant.
// The limiter paces the sequential per-language loop; it does not
// introduce parallelism.
func NewDedicatedAPI(endpoint, region string, tokens tokenSource, limiter *rate.Limiter) *DedicatedAPI {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &DedicatedAPI{
		http:     internalhttp.NewClient(internalhttp.Config{BaseURL: endpoint, Timeout: callTimeoutMax}),
		tokens:   tokens,
		region:   region,
		limiter:  limiter,
		endpoint: endpoint,
	}
}

// isManagedIdentitySubdomain reports whether endpoint looks like a
// custom-subdomain (managed-identity-capable) Translator resource rather
// than the generic multi-service Cognitive Services endpoint.
func isManagedIdentitySubdomain(endpoint string) bool {
	return strings.Contains(endpoint, ".cognitiveservices.azure.com") && !strings.Contains(endpoint, "api.cognitive.microsofttranslator.com")
}

type translateResponseItem struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate implements Translator for the dedicated API variant. Per
// §4.9, a per-language failure never fails the batch: that language's
// entry falls back to the English source text.
func (d *DedicatedAPI) Translate(ctx context.Context, text string, langs []string) (map[string]string, error) {
	out := make(map[string]string, len(langs))

	for _, lang := range langs {
		code := strings.ToLower(lang)
		if code == "en" {
			out[code] = text
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		translated, err := d.translateOne(ctx, text, code)
		if err != nil {
			out[code] = text
			continue
		}
		out[code] = translated
	}

	return out, nil
}

func (d *DedicatedAPI) translateOne(ctx context.Context, text, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeoutMax)
	defer cancel()

	token, err := d.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return "", err
	}

	mapped := mapAlias(code)

	var path string
	query := map[string]string{"from": "en", "to": mapped}
	if isManagedIdentitySubdomain(d.endpoint) {
		path = "/translator/text/v3.0/translate"
	} else {
		path = "/translate"
		query["api-version"] = "3.0"
	}

	resp, err := d.http.Do(ctx, internalhttp.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   []map[string]string{{"text": text}},
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Authorization":                "Bearer " + token,
			"Ocp-Apim-Subscription-Region": d.region,
		},
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("translator HTTP %d", resp.StatusCode)
	}

	var decoded []translateResponseItem
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return "", err
	}
	if len(decoded) == 0 || len(decoded[0].Translations) == 0 {
		return "", fmt.Errorf("translator returned no translations")
	}
	return decoded[0].Translations[0].Text, nil
}

// ChatCompletion is the alternate variant: one chat-completion call per
// language, constraining brand/model preservation and length.
type ChatCompletion struct {
	http       *internalhttp.Client
	deployment string
	apiVersion string
	tokens     tokenSource
	limiter    *rate.Limiter
}

// NewChatCompletion builds the alternate chat-completion-driven
// translation variant.
func NewChatCompletion(endpoint, deployment, apiVersion string, tokens tokenSource, limiter *rate.Limiter) *ChatCompletion {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &ChatCompletion{
		http:       internalhttp.NewClient(internalhttp.Config{BaseURL: endpoint, Timeout: callTimeoutMax}),
		deployment: deployment,
		apiVersion: apiVersion,
		tokens:     tokens,
		limiter:    limiter,
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate implements Translator for the chat-completion variant.
func (c *ChatCompletion) Translate(ctx context.Context, text string, langs []string) (map[string]string, error) {
	out := make(map[string]string, len(langs))

	for _, lang := range langs {
		code := strings.ToLower(lang)
		if code == "en" {
			out[code] = text
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		translated, err := c.translateOne(ctx, text, code)
		if err != nil {
			out[code] = text
			continue
		}
		out[code] = translated
	}

	return out, nil
}

func (c *ChatCompletion) translateOne(ctx context.Context, text, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeoutMax)
	defer cancel()

	token, err := c.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return "", err
	}

	system := fmt.Sprintf("Translate the following product alt text into the language with code %q. "+
		"Preserve brand and model names exactly as written. Respond with only the translation, at most 125 characters.", mapAlias(code))

	body := map[string]interface{}{
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": text},
		},
		"temperature": 0.2,
		"max_tokens":  150,
	}

	path := fmt.Sprintf("/openai/deployments/%s/chat/completions", c.deployment)
	resp, err := c.http.Do(ctx, internalhttp.Request{
		Method:  http.MethodPost,
		Path:    path,
		Query:   map[string]string{"api-version": c.apiVersion},
		Body:    body,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("translator chat HTTP %d", resp.StatusCode)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil || len(decoded.Choices) == 0 {
		return "", fmt.Errorf("translator chat: no choices")
	}

	return strings.Trim(strings.TrimSpace(decoded.Choices[0].Message.Content), `"'`), nil
}
