package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	internalhttp "github.com/stelladora/alt-text-pipeline/pkg/internal/http"
)

type fakeTokens struct{}

func (fakeTokens) GetToken(ctx context.Context, audience string) (string, error) {
	return "fake-token", nil
}

func newClientAgainst(srv *httptest.Server) *Client {
	return &Client{
		account: "test",
		tokens:  fakeTokens{},
		http:    internalhttp.NewClient(internalhttp.Config{BaseURL: srv.URL}),
	}
}

func TestReadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newClientAgainst(srv)
	data, err := c.Read(context.Background(), "ingest", "missing.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil data for 404, got %v", data)
	}
}

func TestWriteSetsBlobType(t *testing.T) {
	var gotBlobType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBlobType = r.Header.Get("x-ms-blob-type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClientAgainst(srv)
	err := c.Write(context.Background(), "public", "img_0.png", []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if gotBlobType != "BlockBlob" {
		t.Errorf("expected BlockBlob, got %q", gotBlobType)
	}
}

func TestSetTagsBuildsXML(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("comp") != "tags" {
			t.Errorf("expected comp=tags query param")
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClientAgainst(srv)
	err := c.SetTags(context.Background(), "public", "img_0.png", map[string]string{"processed": "true"})
	if err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	if !strings.Contains(body, "<Key>processed</Key>") {
		t.Errorf("expected tags XML, got %q", body)
	}
}

func TestCopySetsCopySourceHeader(t *testing.T) {
	var gotSource string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSource = r.Header.Get("x-ms-copy-source")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := newClientAgainst(srv)
	err := c.Copy(context.Background(), "ingest", "img_0.png", "public", "img_0.png")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !strings.Contains(gotSource, "/ingest/img_0.png") {
		t.Errorf("expected copy-source header referencing source blob, got %q", gotSource)
	}
}

func TestDataURLMimeByExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8})
	}))
	defer srv.Close()

	c := newClientAgainst(srv)
	url, err := c.DataURL(context.Background(), "ingest", "img_0.jpg")
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Errorf("expected jpeg data URL, got %q", url)
	}
}
