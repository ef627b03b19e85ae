package openai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/modules/translate/providers/chat"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func ParseSettings(settings string) (*Settings, error) {
	var cfg Settings
	err := yaml.Unmarshal([]byte(settings), &cfg)
	if err != nil {
		return nil, fmt.Errorf("openai config parse err: %w", err)
	}
	return &cfg, nil
}

// New builds a provider authenticating with a bearer API key. Empty settings
// fall back to the public endpoint and DefaultModel.
func New(cfg translate.DirectKey, s *Settings, hc *http.Client, l *zap.Logger) translate.Provider {
	baseURL := DefaultBaseURL
	model := DefaultModel
	var temperature *float64
	if s != nil {
		if s.API.BaseURL != "" {
			baseURL = s.API.BaseURL
		}
		if s.Model != "" {
			model = s.Model
		}
		temperature = s.Temperature
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	return &gpt{
		Client: chat.NewClient("openai", completionsURL(baseURL), header, model, temperature, hc, l),
	}
}

func completionsURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}
