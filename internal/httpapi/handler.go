// Package httpapi routes webhook requests to the pipeline orchestrator,
// handling the delivery-service validation handshake and issuing opaque
// session tokens.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	"github.com/stelladora/alt-text-pipeline/internal/orchestrator"
	"github.com/stelladora/alt-text-pipeline/internal/pipelineerr"
	"github.com/stelladora/alt-text-pipeline/internal/session"
	"github.com/stelladora/alt-text-pipeline/pkg/internal/media"
)

func jsonUnmarshal(raw []byte, out interface{}) error {
	return json.Unmarshal(raw, out)
}

// runner is the subset of orchestrator.Orchestrator the handler needs.
type runner interface {
	Run(ctx context.Context, in orchestrator.Input) (orchestrator.Output, error)
}

// Handler wires the gin routes to the orchestrator.
type Handler struct {
	orchestrator runner
}

// NewHandler builds a Handler.
func NewHandler(o runner) *Handler {
	return &Handler{orchestrator: o}
}

// Register attaches the routes to a gin engine.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.handleHealth)
	r.POST("/describe", h.handleDescribe)
	r.POST("/login", h.handleLogin)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var body struct {
		TenantID string `json:"tenant_id"`
		UserID   string `json:"user_id"`
	}
	// A missing/empty body is fine: Issue defaults both fields.
	_ = c.ShouldBindJSON(&body)

	tok, err := session.Issue(body.TenantID, body.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"session_token": tok.Opaque,
		"tenant_id":     tok.TenantID,
		"user_id":       tok.UserID,
		"expires_in":    tok.ExpiresIn,
	})
}

func (h *Handler) handleDescribe(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_input", "message": err.Error()})
		return
	}

	var events []DeliveryEvent
	if jsonUnmarshal(raw, &events) == nil && len(events) > 0 {
		h.dispatchEvent(c, events[0])
		return
	}

	var direct DirectRequest
	if err := jsonUnmarshal(raw, &direct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_input", "message": err.Error()})
		return
	}

	if direct.BlobName == "" {
		c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
		return
	}

	h.processBlob(c, direct.BlobName, direct.Sidecar, direct.CMSText)
}

func (h *Handler) dispatchEvent(c *gin.Context, event DeliveryEvent) {
	if event.EventType == EventTypeSubscriptionValidation {
		c.JSON(http.StatusOK, gin.H{"validationResponse": event.validationCode()})
		return
	}

	if event.EventType == EventTypeBlobCreated {
		container, blob, err := parseBlobURL(event.blobURL())
		if errors.Is(err, pipelineerr.ErrSkip) {
			c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": "Not an image file"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_input", "message": err.Error()})
			return
		}
		h.processBlobInContainer(c, container, blob)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
}

func (h *Handler) processBlob(c *gin.Context, blobName string, sidecar *map[string]interface{}, cmsText string) {
	var doc *metadata.Document
	if sidecar != nil {
		if raw, err := json.Marshal(*sidecar); err == nil {
			if parsed, err := metadata.Parse(raw); err == nil {
				doc = &parsed
			}
		}
	}
	h.runOrchestrator(c, blobName, cmsText, doc)
}

func (h *Handler) processBlobInContainer(c *gin.Context, container, blob string) {
	if !media.IsImageBlob(blob) {
		c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": "Not an image file"})
		return
	}
	h.runOrchestrator(c, blob, "", nil)
}

func (h *Handler) runOrchestrator(c *gin.Context, blobName, cmsText string, suppliedMetadata *metadata.Document) {
	if !media.IsImageBlob(blobName) {
		c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": "Not an image file"})
		return
	}

	out, err := h.orchestrator.Run(c.Request.Context(), orchestrator.Input{
		BlobName:            blobName,
		SuppliedMetadata:    suppliedMetadata,
		SuppliedDescription: cmsText,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "processed",
		"blob":    blobName,
		"altText": out.AltJSON.AltText,
	})
}

// parseBlobURL extracts container and blob name from an absolute blob
// URL's path: first segment is the container, the remainder is the blob
// name (which may itself contain slashes).
func parseBlobURL(rawURL string) (container, blob string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	trimmed := strings.TrimPrefix(u.Path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", pipelineerr.ErrSkip
	}
	return parts[0], parts[1], nil
}
