// Package metadata parses the YAML sidecar that accompanies an ingested
// image and distills its free-form description into curated facts.
package metadata

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the shallow structure read from "<stem>.yml". Every field is
// optional; the uploader supplies the document, so nothing here is
// trusted beyond what's needed to drive the describer/translator.
type Document struct {
	Asset       string
	Source      string
	Brand       string
	Model       string
	Description string
	Angle       string
	Languages   []string
}

// Parse decodes a YAML sidecar document. Malformed YAML is returned as an
// error; the caller (orchestrator) treats any error as "proceed with an
// empty Document", per the metadata-missing non-error policy.
func Parse(raw []byte) (Document, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Document{}, err
	}

	doc := Document{}
	doc.Asset = stringField(generic, "asset")
	doc.Source = stringField(generic, "source")
	doc.Brand = firstStringField(generic, "brand", "make")
	doc.Model = stringField(generic, "model")
	doc.Description = firstStringField(generic, "description", "cmsText")
	doc.Angle = stringField(generic, "angle")
	doc.Languages = stringListField(generic, "languages")

	return doc, nil
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func firstStringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v := stringField(m, k); v != "" {
			return v
		}
	}
	return ""
}

func stringListField(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Facts is the curated key→value set distilled from a description,
// filtering out promotional lines.
type Facts map[string]string

// factLine matches "Key: value" lines, capturing the key and value.
var factLine = regexp.MustCompile(`^([A-Za-z ]+):\s*(.+)$`)

// promotionalPatterns are case-insensitive substrings/phrases that mark a
// description line as marketing copy rather than a fact.
var promotionalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)warranty|guarantee|limited warranty`),
	regexp.MustCompile(`(?i)free|complimentary|included at no extra cost`),
	regexp.MustCompile(`(?i)best|revolutionary|innovative|cutting-edge`),
	regexp.MustCompile(`(?i)certified|patented|proprietary`),
	regexp.MustCompile(`(?i)savings|discount|reduced price`),
}

// Distill extracts ProductFacts from a free-form description, one fact
// per "Key: value" line under 100 characters, dropping promotional lines.
func Distill(description string) Facts {
	facts := Facts{}
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isPromotional(line) {
			continue
		}
		m := factLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], m[2]
		if len(value) >= 100 {
			continue
		}
		facts[normalizeKey(key)] = value
	}
	return facts
}

func isPromotional(line string) bool {
	for _, p := range promotionalPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), " ", "_")
}
