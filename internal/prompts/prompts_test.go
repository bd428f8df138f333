package prompts

import (
	"strings"
	"testing"

	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	"github.com/stelladora/alt-text-pipeline/internal/vision"
)

func TestSystemInstructionKnownSource(t *testing.T) {
	instr := SystemInstruction("public website")
	if !strings.Contains(instr, "Public Website") {
		t.Errorf("expected public-website prompt content, got %q", instr)
	}
	if !strings.Contains(instr, "Response Format") {
		t.Errorf("expected response format section appended, got %q", instr)
	}
}

func TestSystemInstructionUnknownSourceFallsBackToDefault(t *testing.T) {
	instr := SystemInstruction("some unseen retailer")
	if !strings.Contains(instr, "Alt-Text Generator") {
		t.Errorf("expected default prompt content, got %q", instr)
	}
}

func TestUserInstructionSections(t *testing.T) {
	doc := metadata.Document{Brand: "Epson", Model: "EcoTank L3560"}
	facts := metadata.Facts{"print_speed": "15 ppm"}
	hints := vision.Hints{Angle: "front"}

	got := UserInstruction("img_0.png", doc, facts, hints)

	for _, want := range []string{
		"Image filename: img_0.png",
		"Brand: Epson",
		"Model: EcoTank L3560",
		"print_speed: 15 ppm",
		"Angle: front",
		"Task:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected instruction to contain %q, got:\n%s", want, got)
		}
	}
}
