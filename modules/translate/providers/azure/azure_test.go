package azure

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/candinya/ai-translator/modules/translate"
	"go.uber.org/zap/zaptest"
)

func TestCompletionsURL(t *testing.T) {
	got := completionsURL(translate.CloudDeployment{
		Endpoint:       "https://example.openai.azure.com/",
		APIKey:         "key",
		APIVersion:     "2024-06-01",
		DeploymentName: "gpt-4o",
	})
	want := "https://example.openai.azure.com/openai/deployments/gpt-4o/chat/completions?api-version=2024-06-01"
	if got != want {
		t.Errorf("completionsURL = %q, want %q", got, want)
	}
}

func TestNewTalksToDeployment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/translator/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != "2024-06-01" {
			t.Errorf("api-version = %q", got)
		}
		if got := r.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("api-key = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["model"]; ok {
			t.Errorf("model sent to a deployment: %v", body["model"])
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"Hello"}}]}`)
	}))
	defer srv.Close()

	p := New(translate.CloudDeployment{
		Endpoint:       srv.URL,
		APIKey:         "azure-key",
		APIVersion:     "2024-06-01",
		DeploymentName: "translator",
	}, nil, srv.Client(), zaptest.NewLogger(t))

	got, err := p.Complete(context.Background(), translate.Prompt{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hello" {
		t.Errorf("Complete = %q", got)
	}
}
