package imageutil

import (
	"encoding/base64"
	"fmt"
)

// EncodeToBase64 converts blob bytes to a base64 string.
func EncodeToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ConvertToDataURI converts blob bytes to a data URI string, so a product
// image can be embedded directly in a multimodal chat-completion request
// instead of requiring the describer to fetch it over a second URL.
//
// Format: data:<mimeType>;base64,<base64Data>
//
// Example:
//
//	data := []byte{0x89, 0x50, 0x4E, 0x47}
//	uri := ConvertToDataURI(data, "image/png")
//	// Returns: "data:image/png;base64,iVBORw=="
func ConvertToDataURI(data []byte, mimeType string) string {
	encoded := EncodeToBase64(data)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
}
