package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

type fakeTokens struct{}

func (fakeTokens) GetToken(ctx context.Context, audience string) (string, error) {
	return "fake-token", nil
}

func TestDedicatedAPITranslateMultiLanguageWithAlias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := r.URL.Query().Get("to")
		var text string
		switch to {
		case "ja":
			text = "プリンタ。"
		case "nl":
			text = "Een printer."
		}
		w.Write([]byte(`[{"translations":[{"text":"` + text + `"}]}]`))
	}))
	defer srv.Close()

	tr := NewDedicatedAPI(srv.URL, "westus", fakeTokens{}, rate.NewLimiter(rate.Inf, 1))
	got, err := tr.Translate(context.Background(), "A printer.", []string{"en", "jp", "nl"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got["en"] != "A printer." {
		t.Errorf("en = %q", got["en"])
	}
	if got["jp"] != "プリンタ。" {
		t.Errorf("jp = %q", got["jp"])
	}
	if got["nl"] != "Een printer." {
		t.Errorf("nl = %q", got["nl"])
	}
}

func TestDedicatedAPIPartialFailureFallsBackToEnglish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		to := r.URL.Query().Get("to")
		if to == "de" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"translations":[{"text":"Une imprimante."}]}]`))
	}))
	defer srv.Close()

	tr := NewDedicatedAPI(srv.URL, "westus", fakeTokens{}, rate.NewLimiter(rate.Inf, 1))
	got, err := tr.Translate(context.Background(), "A printer.", []string{"fr", "de"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got["fr"] != "Une imprimante." {
		t.Errorf("fr = %q", got["fr"])
	}
	if got["de"] != "A printer." {
		t.Errorf("expected de to fall back to English source, got %q", got["de"])
	}
}

func TestIsManagedIdentitySubdomain(t *testing.T) {
	if !isManagedIdentitySubdomain("https://my-resource.cognitiveservices.azure.com") {
		t.Error("expected custom subdomain to be detected")
	}
	if isManagedIdentitySubdomain("https://api.cognitive.microsofttranslator.com") {
		t.Error("expected generic endpoint to not be detected as managed-identity subdomain")
	}
}
