// Package normalizer extracts and cleans an alt-text string out of
// whatever a describer model happened to return — strict JSON, fenced
// JSON, embedded JSON, or bare prose.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/stelladora/alt-text-pipeline/pkg/jsonparser"
)

var (
	fencedBlock   = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	tightAltJSON  = regexp.MustCompile(`\{[^{}]*"alt_en"[^{}]*\}`)
	anyJSONObject = regexp.MustCompile(`(?s)\{.+\}`)

	headingMarkers = regexp.MustCompile(`(?m)^#+\s*`)
	boldMarkers    = regexp.MustCompile(`\*\*`)
)

// Normalize extracts alt_en from raw model output, trying strategies in
// order and returning the first non-empty result, then applies
// punctuation normalization to it.
func Normalize(raw string) string {
	alt := extract(raw)
	return normalizePunctuation(alt)
}

func extract(raw string) string {
	if alt := altFromJSON(raw); alt != "" {
		return alt
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if alt := altFromJSON(m[1]); alt != "" {
			return alt
		}
	}

	if m := tightAltJSON.FindString(raw); m != "" {
		if alt := altFromJSON(m); alt != "" {
			return alt
		}
	}

	if m := anyJSONObject.FindString(raw); m != "" {
		if alt := altFromJSON(m); alt != "" {
			return alt
		}
	}

	return proseFallback(raw)
}

// altFromJSON parses text as JSON (repairing it if necessary) and returns
// a non-empty "alt_en" field from the resulting object, or "".
func altFromJSON(text string) string {
	result := jsonparser.ParsePartialJSON(strings.TrimSpace(text))
	if result.Value == nil {
		return ""
	}
	obj, ok := result.Value.(map[string]interface{})
	if !ok {
		return ""
	}
	alt, ok := obj["alt_en"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(alt)
}

// proseFallback strips markdown heading/bold markers, then picks the
// first line longer than 10 characters, truncated to 200 with an
// ellipsis if needed.
func proseFallback(raw string) string {
	cleaned := headingMarkers.ReplaceAllString(raw, "")
	cleaned = boldMarkers.ReplaceAllString(cleaned, "")

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		if len(line) > 200 {
			return line[:200] + "..."
		}
		return line
	}
	return ""
}

// normalizePunctuation upper-cases the first rune (Unicode-aware) and ensures
// the string ends in one of {. ! ?}. Empty input stays empty.
func normalizePunctuation(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	s = string(runes)

	last := runes[len(runes)-1]
	if last != '.' && last != '!' && last != '?' {
		s += "."
	}
	return s
}
