package vision

import "testing"

func TestDeriveFromBlobName(t *testing.T) {
	h := Derive("product_front-facing_2024.png", nil, "")
	if h.Angle != "front" {
		t.Errorf("Angle = %q, want front", h.Angle)
	}
}

func TestDeriveFromProviderTags(t *testing.T) {
	h := Derive("img_0.png", []string{"close-up shot"}, "")
	if h.Angle != "detail" {
		t.Errorf("Angle = %q, want detail", h.Angle)
	}
}

func TestDeriveFromMetadataFallback(t *testing.T) {
	h := Derive("img_0.png", nil, "side")
	if h.Angle != "side" {
		t.Errorf("Angle = %q, want side", h.Angle)
	}
}

func TestDeriveNoMatch(t *testing.T) {
	h := Derive("img_0.png", nil, "")
	if h.Angle != "" {
		t.Errorf("Angle = %q, want empty", h.Angle)
	}
}
