// Package media maps blob names to MIME types for the image formats the
// pipeline accepts.
package media

import "strings"

// imageExtensions lists the extensions the orchestrator will process,
// matched case-insensitively against a blob name's suffix.
var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// IsImageBlob reports whether blobName has a recognized image extension.
func IsImageBlob(blobName string) bool {
	_, ok := imageExtensions[extOf(blobName)]
	return ok
}

// DetectImageMediaType returns the MIME type for blobName based on its file
// extension, or "application/octet-stream" if the extension is unrecognized.
func DetectImageMediaType(blobName string) string {
	if mime, ok := imageExtensions[extOf(blobName)]; ok {
		return mime
	}
	return "application/octet-stream"
}

func extOf(blobName string) string {
	idx := strings.LastIndex(blobName, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(blobName[idx:])
}
