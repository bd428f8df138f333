// Package vision derives shooting-angle and object hints for an image
// from its blob name, provider-supplied tags, or explicit metadata.
package vision

import "strings"

// Hints is the optional structured record describers and prompt
// composition draw on.
type Hints struct {
	// Angle is one of the recognized angle names, or "" if none matched.
	Angle string

	// Objects are provider-supplied tags describing what's in the frame.
	Objects []string
}

// angleKeywords maps each angle to the substrings (case-insensitive) that
// identify it.
var angleKeywords = []struct {
	angle      string
	substrings []string
}{
	{"front", []string{"front view", "front-facing", "face-on", "straight on", "frontal"}},
	{"angle", []string{"angled", "perspective", "iso", "3/4 view", "three-quarter"}},
	{"side", []string{"side view", "profile", "left side", "right side"}},
	{"top", []string{"top view", "overhead", "above", "bird's eye"}},
	{"detail", []string{"close-up", "close up", "detail", "macro", "zoom"}},
	{"action", []string{"in use", "action shot", "printing", "scanning", "operating"}},
}

// Derive determines angle and object hints, checking in order: the blob
// name, the provider tag list, and finally the metadata's explicit angle
// field.
func Derive(blobName string, providerTags []string, metadataAngle string) Hints {
	h := Hints{Objects: providerTags}

	if angle := matchAngle(blobName); angle != "" {
		h.Angle = angle
		return h
	}

	for _, tag := range providerTags {
		if angle := matchAngle(tag); angle != "" {
			h.Angle = angle
			return h
		}
	}

	h.Angle = metadataAngle
	return h
}

func matchAngle(haystack string) string {
	lower := strings.ToLower(haystack)
	for _, entry := range angleKeywords {
		for _, sub := range entry.substrings {
			if strings.Contains(lower, sub) {
				return entry.angle
			}
		}
	}
	return ""
}
