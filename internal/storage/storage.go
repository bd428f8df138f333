// Package storage implements the object-store operations the pipeline
// needs: read, write, tag, copy, and inline data-URL construction,
// against an Azure-Storage-style blob REST surface.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stelladora/alt-text-pipeline/internal/metadata"
	internalhttp "github.com/stelladora/alt-text-pipeline/pkg/internal/http"
	"github.com/stelladora/alt-text-pipeline/pkg/internal/imageutil"
	"github.com/stelladora/alt-text-pipeline/pkg/internal/media"
)

const (
	blobAPIVersion  = "2021-08-06"
	storageAudience = "https://storage.azure.com"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
	tagTimeout   = 15 * time.Second
)

// tokenSource supplies bearer tokens for the storage audience.
type tokenSource interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

// Client talks to a single storage account over HTTPS.
type Client struct {
	account string
	tokens  tokenSource
	http    *internalhttp.Client
}

// NewClient builds a Client for the named storage account.
func NewClient(account string, tokens tokenSource) *Client {
	return &Client{
		account: account,
		tokens:  tokens,
		http:    internalhttp.NewClient(internalhttp.Config{BaseURL: fmt.Sprintf("https://%s.blob.core.windows.net", account)}),
	}
}

func (c *Client) authHeaders(ctx context.Context) (map[string]string, error) {
	token, err := c.tokens.GetToken(ctx, storageAudience)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
		"x-ms-version":  blobAPIVersion,
	}, nil
}

func blobPath(container, blob string) string {
	return "/" + container + "/" + blob
}

// Read fetches a blob's bytes, returning (nil, nil) on a 404.
func (c *Client) Read(ctx context.Context, container, blob string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(ctx, internalhttp.Request{
		Method:  http.MethodGet,
		Path:    blobPath(container, blob),
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage read %s/%s: HTTP %d", container, blob, resp.StatusCode)
	}
	return resp.Body, nil
}

// Write uploads blob bytes as a block blob with the given content type.
func (c *Client) Write(ctx context.Context, container, blob string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	headers, err := c.authHeaders(ctx)
	if err != nil {
		return err
	}
	headers["x-ms-blob-type"] = "BlockBlob"

	resp, err := c.http.Put(ctx, blobPath(container, blob), nil, headers, data, contentType)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("storage write %s/%s: HTTP %d", container, blob, resp.StatusCode)
	}
	return nil
}

// SetTags applies key/value index tags to a blob. Failures are non-fatal
// to the caller; this method still returns the error so the caller can
// decide whether and how to log it, per the tag-set-failure policy.
func (c *Client) SetTags(ctx context.Context, container, blob string, tags map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, tagTimeout)
	defer cancel()

	headers, err := c.authHeaders(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.Put(ctx, blobPath(container, blob), map[string]string{"comp": "tags"}, headers, []byte(tagsXML(tags)), "application/xml")
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("storage set-tags %s/%s: HTTP %d", container, blob, resp.StatusCode)
	}
	return nil
}

func tagsXML(tags map[string]string) string {
	var b strings.Builder
	b.WriteString("<Tags><TagSet>")
	for k, v := range tags {
		fmt.Fprintf(&b, "<Tag><Key>%s</Key><Value>%s</Value></Tag>", k, v)
	}
	b.WriteString("</TagSet></Tags>")
	return b.String()
}

// Copy copies a blob from one container/blob to another, server-side.
func (c *Client) Copy(ctx context.Context, srcContainer, srcBlob, dstContainer, dstBlob string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	headers, err := c.authHeaders(ctx)
	if err != nil {
		return err
	}
	headers["x-ms-copy-source"] = fmt.Sprintf("https://%s.blob.core.windows.net%s", c.account, blobPath(srcContainer, srcBlob))

	resp, err := c.http.Put(ctx, blobPath(dstContainer, dstBlob), nil, headers, nil, "")
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("storage copy %s/%s -> %s/%s: HTTP %d", srcContainer, srcBlob, dstContainer, dstBlob, resp.StatusCode)
	}
	return nil
}

// DataURL reads a blob and returns it as a "data:<mime>;base64,<...>"
// string, or "" if the blob does not exist.
func (c *Client) DataURL(ctx context.Context, container, blob string) (string, error) {
	data, err := c.Read(ctx, container, blob)
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}
	mime := media.DetectImageMediaType(blob)
	return imageutil.ConvertToDataURI(data, mime), nil
}

// ReadYamlMetadata reads "<stem>.yml" for the given image blob name and
// parses it. Any error (missing blob, malformed YAML) is returned for the
// caller to treat as "proceed with empty metadata".
func (c *Client) ReadYamlMetadata(ctx context.Context, container, blobName string) (metadata.Document, error) {
	stem := strings.TrimSuffix(blobName, extOf(blobName))
	raw, err := c.Read(ctx, container, stem+".yml")
	if err != nil {
		return metadata.Document{}, err
	}
	if raw == nil {
		return metadata.Document{}, fmt.Errorf("no sidecar metadata for %s", blobName)
	}
	return metadata.Parse(raw)
}

func extOf(blobName string) string {
	idx := strings.LastIndex(blobName, ".")
	if idx < 0 {
		return ""
	}
	return blobName[idx:]
}
