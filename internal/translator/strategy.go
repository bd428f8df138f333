package translator

import "golang.org/x/time/rate"

// Config carries the endpoints/deployments strategy selection needs.
type Config struct {
	TranslatorEndpoint string
	TranslatorRegion   string
	FoundryEndpoint    string
	DeploymentLLM      string
	DeploymentPhi4     string
	APIVersion         string
}

// NewFromStrategy builds the Translator variant named by strategy
// ("translator", "llm", "phi4"), per the TRANSLATOR env var contract.
func NewFromStrategy(strategy string, cfg Config, tokens tokenSource, limiter *rate.Limiter) Translator {
	switch strategy {
	case "llm":
		return NewChatCompletion(cfg.FoundryEndpoint, cfg.DeploymentLLM, cfg.APIVersion, tokens, limiter)
	case "phi4":
		return NewChatCompletion(cfg.FoundryEndpoint, cfg.DeploymentPhi4, cfg.APIVersion, tokens, limiter)
	default: // "translator"
		return NewDedicatedAPI(cfg.TranslatorEndpoint, cfg.TranslatorRegion, tokens, limiter)
	}
}
