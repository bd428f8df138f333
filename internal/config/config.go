// Package config loads process configuration from the environment. All
// settings are read once at startup; there is no hot reload.
package config

import (
	"os"
	"strings"
)

// Config holds every environment-derived setting the pipeline needs.
type Config struct {
	Port string

	DescriberStrategy   string
	TranslatorStrategy  string

	DefaultLocales []string

	StorageAccount string
	AzureClientID  string

	FoundryEndpoint        string
	FoundryDeploymentSLM   string
	FoundryDeploymentLLM   string
	FoundryDeploymentPhi4  string
	FoundryAPIVersion      string

	VisionEndpoint string

	TranslatorEndpoint string
	TranslatorRegion   string

	LogLevel string

	IdentityEndpoint string
	IdentityHeader   string
}

// Load reads Config from the process environment, applying the defaults
// the external-interfaces contract specifies.
func Load() *Config {
	c := &Config{
		Port:                  getenvDefault("PORT", "8080"),
		DescriberStrategy:     parseStrategy(os.Getenv("DESCRIBER"), "slm"),
		TranslatorStrategy:    parseStrategy(os.Getenv("TRANSLATOR"), "translator"),
		DefaultLocales:        splitLocales(getenvDefault("LOCALES", "en")),
		StorageAccount:        os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureClientID:         os.Getenv("AZURE_CLIENT_ID"),
		FoundryEndpoint:       os.Getenv("AZURE_FOUNDRY_ENDPOINT"),
		FoundryDeploymentSLM:  os.Getenv("AZURE_FOUNDRY_DEPLOYMENT_SLM"),
		FoundryDeploymentLLM:  os.Getenv("AZURE_FOUNDRY_DEPLOYMENT_LLM"),
		FoundryDeploymentPhi4: getenvDefault("AZURE_FOUNDRY_DEPLOYMENT_PHI4", os.Getenv("AZURE_FOUNDRY_DEPLOYMENT_LLM")),
		FoundryAPIVersion:     getenvDefault("AZURE_FOUNDRY_API_VERSION", "2024-05-01-preview"),
		VisionEndpoint:        os.Getenv("AZURE_VISION_ENDPOINT"),
		TranslatorEndpoint:    os.Getenv("AZURE_TRANSLATOR_ENDPOINT"),
		TranslatorRegion:      os.Getenv("AZURE_TRANSLATOR_REGION"),
		LogLevel:              getenvDefault("LOG_LEVEL", "info"),
		IdentityEndpoint:      firstNonEmpty(os.Getenv("IDENTITY_ENDPOINT"), os.Getenv("MSI_ENDPOINT")),
		IdentityHeader:        firstNonEmpty(os.Getenv("IDENTITY_HEADER"), os.Getenv("MSI_SECRET")),
	}
	return c
}

// parseStrategy extracts <name> from a "strategy:<name>" env var value,
// falling back to def when the var is unset or malformed.
func parseStrategy(raw, def string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if name, ok := strings.CutPrefix(raw, "strategy:"); ok {
		name = strings.TrimSpace(name)
		if name != "" {
			return name
		}
	}
	return def
}

func splitLocales(raw string) []string {
	parts := strings.Split(raw, ",")
	locales := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			locales = append(locales, p)
		}
	}
	if len(locales) == 0 {
		return []string{"en"}
	}
	return locales
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
