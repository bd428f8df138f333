// Package prompts composes the system and user instructions sent to the
// describer's chat-completion call. System prompts are embedded in the
// binary so there is no file-system dependency in production.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	"github.com/stelladora/alt-text-pipeline/internal/vision"
)

//go:embed templates/*.md
var templates embed.FS

// Fallback text used if the embedded template files are somehow absent
// from the filesystem snapshot (should never happen with embed, but it's
// the "hard-coded fallback" the describer contract requires).
const (
	fallbackSystemPrompt = "Describe the product image literally and factually in one sentence. Do not use marketing language."
	fallbackResponseFormat = `## Response Format

Respond with a single JSON object: {"alt_en": "<description>"}`
)

// SystemInstruction composes the full system message: the source-keyed
// prompt (or default, or hard-coded fallback) followed by the shared
// response-format instruction.
func SystemInstruction(source string) string {
	return lookup(normalizedSourceFile(source), "default_system_prompt.md", fallbackSystemPrompt) +
		"\n\n" +
		lookup("_response_format.md", "", fallbackResponseFormat)
}

func lookup(primary, secondary, fallback string) string {
	if b, err := templates.ReadFile("templates/" + primary); err == nil {
		return string(b)
	}
	if secondary != "" {
		if b, err := templates.ReadFile("templates/" + secondary); err == nil {
			return string(b)
		}
	}
	return fallback
}

// normalizedSourceFile maps a metadata source tag to its template
// filename: lowercased, spaces/hyphens replaced with underscores.
func normalizedSourceFile(source string) string {
	n := strings.ToLower(strings.TrimSpace(source))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")
	if n == "" {
		return "default_system_prompt.md"
	}
	return n + "_system_prompt.md"
}

// UserInstruction composes the multi-section user message describing the
// image, its metadata, distilled facts, and visual hints.
func UserInstruction(blobName string, doc metadata.Document, facts metadata.Facts, hints vision.Hints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Image filename: %s\n\n", blobName)

	b.WriteString("Product Metadata:\n")
	if doc.Brand != "" {
		fmt.Fprintf(&b, "- Brand: %s\n", doc.Brand)
	}
	if doc.Model != "" {
		fmt.Fprintf(&b, "- Model: %s\n", doc.Model)
	}
	if doc.Brand == "" && doc.Model == "" {
		b.WriteString("- (none supplied)\n")
	}
	b.WriteString("\n")

	b.WriteString("Product Facts:\n")
	if len(facts) == 0 {
		b.WriteString("- (none supplied)\n")
	} else {
		for k, v := range facts {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	b.WriteString("\n")

	b.WriteString("Visual Hints:\n")
	if hints.Angle != "" {
		fmt.Fprintf(&b, "- Angle: %s\n", hints.Angle)
	}
	if len(hints.Objects) > 0 {
		fmt.Fprintf(&b, "- Observed objects: %s\n", strings.Join(hints.Objects, ", "))
	}
	if hints.Angle == "" && len(hints.Objects) == 0 {
		b.WriteString("- (none supplied)\n")
	}
	b.WriteString("\n")

	b.WriteString("Task: Write one literal, factual sentence describing this product image for use as alt text.")

	return b.String()
}
