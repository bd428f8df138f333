package httpapi

// Vendor-specific wire literals, retained verbatim as constants since
// they are part of the external event contract.
const (
	EventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	EventTypeBlobCreated            = "Microsoft.Storage.BlobCreated"
)

// DeliveryEvent is one element of the array the delivery service posts to
// /describe.
type DeliveryEvent struct {
	EventType string                 `json:"eventType"`
	Data      map[string]interface{} `json:"data"`
}

// validationCode extracts data.validationCode from a validation event.
func (e DeliveryEvent) validationCode() string {
	if e.Data == nil {
		return ""
	}
	code, _ := e.Data["validationCode"].(string)
	return code
}

// blobURL extracts data.url from a blob-created event.
func (e DeliveryEvent) blobURL() string {
	if e.Data == nil {
		return ""
	}
	url, _ := e.Data["url"].(string)
	return url
}

// DirectRequest is the alternate /describe body shape: a direct request
// naming a blob rather than a delivery-service event array.
type DirectRequest struct {
	BlobName string                  `json:"blobName"`
	Sidecar  *map[string]interface{} `json:"sidecar,omitempty"`
	CMSText  string                  `json:"cmsText,omitempty"`
}
