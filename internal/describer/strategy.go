package describer

// NewFromStrategy builds the Describer variant named by strategy ("slm",
// "llm", "phi4", "vision"), per the DESCRIBER env var contract: the chat
// variants differ only in which deployment they target, not in wire
// protocol; "vision" selects the caption+tags fallback.
func NewFromStrategy(strategy string, cfg Config, tokens tokenSource) Describer {
	switch strategy {
	case "vision":
		return NewCaptionTags(cfg.VisionEndpoint, tokens)
	case "llm":
		return NewChatCompletion(cfg.FoundryEndpoint, cfg.DeploymentLLM, cfg.APIVersion, tokens, 500)
	case "phi4":
		return NewChatCompletion(cfg.FoundryEndpoint, cfg.DeploymentPhi4, cfg.APIVersion, tokens, 300)
	default: // "slm"
		return NewChatCompletion(cfg.FoundryEndpoint, cfg.DeploymentSLM, cfg.APIVersion, tokens, 300)
	}
}

// Config carries the deployment names and endpoints strategy selection
// needs, mirroring the environment-variable table.
type Config struct {
	FoundryEndpoint string
	DeploymentSLM   string
	DeploymentLLM   string
	DeploymentPhi4  string
	APIVersion      string
	VisionEndpoint  string
}
